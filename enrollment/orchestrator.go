package enrollment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/careplus/onboarding/accounts"
	"github.com/careplus/onboarding/clinical"
	errs "github.com/careplus/onboarding/errors"
	"github.com/careplus/onboarding/healthdata"
	"github.com/careplus/onboarding/healthrecords"
	"github.com/careplus/onboarding/profiles"
	"github.com/careplus/onboarding/store"
	"github.com/careplus/onboarding/verification"
)

// Orchestrator drives the enrollment pipeline. At most one session runs at
// a time; each stage transition is checkpointed so a failed or interrupted
// session resumes at the stage it last completed instead of starting over.
type Orchestrator struct {
	kv              store.KV
	verifier        verification.Client
	fetcher         healthdata.Client
	analyzer        healthdata.Analyzer
	profilesService profiles.Service
	rules           clinical.Rules
	logger          *zap.SugaredLogger

	confirmationTimeout time.Duration

	guard *Guard
	wg    sync.WaitGroup

	mu             sync.Mutex
	waiter         *verification.Waiter
	runCancel      context.CancelFunc
	abortRequested bool

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

func NewOrchestrator(
	cfg verification.Config,
	kv store.KV,
	verifier verification.Client,
	fetcher healthdata.Client,
	analyzer healthdata.Analyzer,
	profilesService profiles.Service,
	rules clinical.Rules,
	logger *zap.SugaredLogger,
	lifecycle fx.Lifecycle,
) (*Orchestrator, error) {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	orchestrator := &Orchestrator{
		kv:                  kv,
		verifier:            verifier,
		fetcher:             fetcher,
		analyzer:            analyzer,
		profilesService:     profilesService,
		rules:               rules,
		logger:              logger,
		confirmationTimeout: cfg.ConfirmationTimeout,
		guard:               NewGuard(),
		shutdownCtx:         shutdownCtx,
		shutdownCancel:      shutdownCancel,
	}

	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			shutdownCancel()
			done := make(chan struct{})
			go func() {
				orchestrator.wg.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})

	return orchestrator, nil
}

// Session returns the persisted enrollment session.
func (o *Orchestrator) Session(ctx context.Context) (*Session, error) {
	session, err := store.Read[Session](ctx, o.kv, store.KeyEnrollmentSession)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: no enrollment session", errs.NotFound)
	} else if err != nil {
		return nil, err
	}
	return session, nil
}

// Start validates the submitted registration, requests identity
// verification and hands the rest of the pipeline to a background run.
// Validation and the verification request happen synchronously so the
// caller sees those failures directly.
func (o *Orchestrator) Start(ctx context.Context, params StartParams) (*Session, error) {
	credentials, err := accounts.NewCredentials(params.AccountID, params.Password)
	if err != nil {
		return nil, err
	}
	identity, err := params.identity()
	if err != nil {
		return nil, err
	}
	anthropometrics, err := params.anthropometrics()
	if err != nil {
		return nil, err
	}

	existing, err := store.Read[Session](ctx, o.kv, store.KeyEnrollmentSession)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status != StatusAborted {
		return nil, fmt.Errorf("%w: resume or abort it first", errs.SessionInProgress)
	}

	if !o.guard.TryAcquire() {
		return nil, errs.SessionInProgress
	}

	now := time.Now()
	session := &Session{
		ID:              uuid.NewString(),
		Stage:           StageDraft,
		Status:          StatusActive,
		Credentials:     credentials,
		Identity:        identity,
		Anthropometrics: anthropometrics,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := o.checkpoint(ctx, session); err != nil {
		o.guard.Release()
		return nil, err
	}

	for session.Stage != StageVerificationRequested {
		if _, err := o.step(ctx, session); err != nil {
			o.fail(session, err)
			o.guard.Release()
			return nil, err
		}
		if err := o.checkpoint(ctx, session); err != nil {
			o.disarmWaiter()
			o.guard.Release()
			return nil, err
		}
	}

	o.logger.Infow("enrollment session started", "sessionId", session.ID)

	snapshot := *session
	o.spawn(session)
	return &snapshot, nil
}

// Resume re-enters a failed or interrupted session at its checkpointed
// stage. A stage that failed mid-transition re-runs from the last completed
// checkpoint; completed stages never re-execute.
func (o *Orchestrator) Resume(ctx context.Context) (*Session, error) {
	session, err := o.Session(ctx)
	if err != nil {
		return nil, err
	}
	if session.Status == StatusAborted {
		return nil, fmt.Errorf("%w: session was aborted, start over", errs.BadRequest)
	}

	if !o.guard.TryAcquire() {
		return nil, errs.SessionInProgress
	}

	session.Status = StatusActive
	session.Failure = nil
	if err := o.checkpoint(ctx, session); err != nil {
		o.guard.Release()
		return nil, err
	}

	o.logger.Infow("enrollment session resumed", "sessionId", session.ID, "stage", session.Stage)

	snapshot := *session
	o.spawn(session)
	return &snapshot, nil
}

// ConfirmVerification reports that the user finished the handshake in the
// provider's app. Only meaningful while the pipeline is waiting.
func (o *Orchestrator) ConfirmVerification() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.waiter == nil {
		return fmt.Errorf("%w: no verification wait in progress", errs.BadRequest)
	}
	o.waiter.Confirm()
	return nil
}

// CancelVerification cancels the pending wait. The session fails at the
// verification stage and stays resumable; resuming issues a fresh request.
func (o *Orchestrator) CancelVerification() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.waiter == nil {
		return fmt.Errorf("%w: no verification wait in progress", errs.BadRequest)
	}
	o.waiter.Cancel()
	return nil
}

// Abort terminates the session for good. A running stage is interrupted;
// the session record is kept with aborted status so a later Start can
// replace it.
func (o *Orchestrator) Abort(ctx context.Context) error {
	o.mu.Lock()
	waiter := o.waiter
	cancel := o.runCancel
	if cancel != nil {
		o.abortRequested = true
	}
	o.mu.Unlock()

	if cancel != nil {
		if waiter != nil {
			waiter.Cancel()
		}
		cancel()
		return nil
	}

	session, err := o.Session(ctx)
	if err != nil {
		return err
	}
	if session.Status == StatusAborted {
		return nil
	}
	session.Status = StatusAborted
	session.Failure = &Failure{
		Stage:  session.Stage,
		Reason: "aborted by user",
		At:     time.Now(),
	}
	return o.checkpoint(ctx, session)
}

func (o *Orchestrator) spawn(session *Session) {
	ctx, cancel := context.WithCancel(o.shutdownCtx)
	o.mu.Lock()
	o.runCancel = cancel
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() {
			o.mu.Lock()
			o.runCancel = nil
			o.waiter = nil
			// an abort that raced a completed run must not carry over
			// into the next session's failure handling
			o.abortRequested = false
			o.mu.Unlock()
			cancel()
			o.guard.Release()
		}()
		o.run(ctx, session)
	}()
}

func (o *Orchestrator) run(ctx context.Context, session *Session) {
	for {
		done, err := o.step(ctx, session)
		if err != nil {
			o.fail(session, err)
			return
		}
		if done {
			return
		}
		if err := o.checkpoint(ctx, session); err != nil {
			o.fail(session, err)
			return
		}
	}
}

// step executes the transition out of the session's current stage. It
// mutates the session in place and reports whether the pipeline finished.
func (o *Orchestrator) step(ctx context.Context, session *Session) (bool, error) {
	switch session.Stage {
	case StageDraft:
		// credentials and identity were validated before the session was
		// created, so the draft transition is a pure stage advance
		session.Stage = StageCredentialsValidated

	case StageCredentialsValidated:
		// the waiter is armed before the provider is contacted so a
		// confirmation arriving right after the request is never rejected
		o.armWaiter()
		verificationSession, err := o.verifier.Request(ctx, session.Identity)
		if err != nil {
			o.disarmWaiter()
			return false, err
		}
		session.Verification = verificationSession
		session.Stage = StageVerificationRequested

	case StageVerificationRequested:
		// a session resumed after a timed-out or cancelled wait has no
		// usable handle bundle anymore and needs a fresh request
		if session.Verification == nil {
			o.armWaiter()
			verificationSession, err := o.verifier.Request(ctx, session.Identity)
			if err != nil {
				o.disarmWaiter()
				return false, err
			}
			session.Verification = verificationSession
			if err := o.checkpoint(ctx, session); err != nil {
				o.disarmWaiter()
				return false, err
			}
		}

		switch o.await(ctx) {
		case verification.Confirmed:
			session.Stage = StageVerificationConfirmed
		case verification.TimedOut:
			session.Verification = nil
			return false, fmt.Errorf("%w: user did not confirm within %s", errs.Timeout, o.confirmationTimeout)
		default:
			session.Verification = nil
			return false, fmt.Errorf("%w: verification wait was cancelled", errs.Cancelled)
		}

	case StageVerificationConfirmed:
		payload, err := o.fetcher.FetchIntegrated(ctx, session.Verification, session.Identity)
		if err != nil {
			return false, err
		}
		session.RawHealth = payload
		session.Stage = StageHealthDataFetched

	case StageHealthDataFetched:
		// on a malformed payload the raw data stays on the session so
		// normalization can be retried without refetching
		record, err := healthrecords.Normalize(session.RawHealth)
		if err != nil {
			return false, fmt.Errorf("%w: %w", errs.BadRequest, err)
		}
		session.CanonicalRecord = record
		session.Stage = StageHealthDataNormalized

	case StageHealthDataNormalized:
		derived := clinical.Derive(o.rules, session.CanonicalRecord)
		o.enrich(ctx, session, &derived)
		session.DerivedProfile = &derived
		session.Stage = StageClinicalProfileDerived

	case StageClinicalProfileDerived:
		userConditions, err := o.userConditions(ctx)
		if err != nil {
			return false, err
		}
		merged := profiles.MergeConditions(*session.DerivedProfile, userConditions)
		profile := buildProfile(session, merged, userConditions)
		session.MergedProfile = &profile
		session.Stage = StageProfileMerged

	case StageProfileMerged:
		if err := o.profilesService.Save(ctx, *session.MergedProfile); err != nil {
			return false, err
		}
		if err := o.kv.Delete(ctx, store.KeyEnrollmentSession); err != nil {
			return false, err
		}
		session.Stage = StageComplete
		o.logger.Infow("enrollment complete", "sessionId", session.ID)
		return true, nil

	default:
		return true, nil
	}

	return false, nil
}

func (o *Orchestrator) await(ctx context.Context) verification.Outcome {
	waiter := o.armWaiter()
	outcome := waiter.Await(ctx, o.confirmationTimeout)
	o.disarmWaiter()
	return outcome
}

// armWaiter installs the confirmation waiter if none is pending. Arming
// happens before the verification request goes out, so confirmations
// arriving while the pipeline is between stages are captured instead of
// rejected.
func (o *Orchestrator) armWaiter() *verification.Waiter {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.waiter == nil {
		o.waiter = verification.NewWaiter()
	}
	return o.waiter
}

func (o *Orchestrator) disarmWaiter() {
	o.mu.Lock()
	o.waiter = nil
	o.mu.Unlock()
}

// enrich folds the provider's disease predictions into the locally derived
// profile. The local derivation is the floor: when the analysis call fails
// the pipeline continues without predictions.
func (o *Orchestrator) enrich(ctx context.Context, session *Session, derived *clinical.Profile) {
	if o.analyzer == nil || len(session.CanonicalRecord.Medications) == 0 {
		return
	}

	analysis, err := o.analyzer.AnalyzeDiseases(ctx, session.CanonicalRecord.Medications, session.Identity)
	if err != nil {
		o.logger.Warnw("disease analysis unavailable, continuing with local derivation", "error", err)
		return
	}

	existing := mapset.NewSet[string]()
	for _, condition := range derived.InferredConditions {
		existing.Add(condition.DisplayName)
	}

	for _, predicted := range analysis.PredictedDiseases {
		if predicted.DiseaseName == "" || existing.Contains(predicted.DiseaseName) {
			continue
		}
		if _, ok := derived.InferredConditions[predicted.DiseaseName]; ok {
			continue
		}

		supporting := append([]string(nil), predicted.RelatedMedications...)
		sort.Strings(supporting)
		derived.InferredConditions[predicted.DiseaseName] = clinical.Condition{
			DisplayName:               predicted.DiseaseName,
			SupportingMedicationNames: supporting,
		}
		existing.Add(predicted.DiseaseName)
	}
}

func (o *Orchestrator) userConditions(ctx context.Context) ([]profiles.UserCondition, error) {
	conditions, err := store.Read[[]profiles.UserCondition](ctx, o.kv, store.KeyUserAddedConditions)
	if errors.Is(err, store.ErrNotFound) {
		return []profiles.UserCondition{}, nil
	} else if err != nil {
		return nil, err
	}
	return *conditions, nil
}

func buildProfile(session *Session, merged clinical.Profile, userConditions []profiles.UserCondition) profiles.Profile {
	profile := profiles.Profile{
		Identity:            session.Identity,
		Credentials:         session.Credentials,
		Anthropometrics:     session.Anthropometrics,
		ClinicalProfile:     merged,
		UserAddedConditions: userConditions,
		CreatedAt:           session.CreatedAt,
		UpdatedAt:           time.Now(),
	}
	if latest := session.CanonicalRecord.LatestCheckup(); latest != nil {
		profile.LatestCheckup = &profiles.CheckupSummary{
			Date:     latest.Date,
			Location: latest.LocationName,
		}
	}
	return profile
}

func (o *Orchestrator) checkpoint(ctx context.Context, session *Session) error {
	session.UpdatedAt = time.Now()
	return store.Write(ctx, o.kv, store.KeyEnrollmentSession, session)
}

// fail records the failure against the last checkpointed stage. An abort
// requested while the stage was running turns the failure into a terminal
// aborted status.
func (o *Orchestrator) fail(session *Session, cause error) {
	o.mu.Lock()
	aborted := o.abortRequested
	o.abortRequested = false
	o.waiter = nil
	o.mu.Unlock()

	session.Status = StatusFailed
	if aborted {
		session.Status = StatusAborted
	}
	session.Failure = &Failure{
		Stage:  session.Stage,
		Reason: cause.Error(),
		At:     time.Now(),
	}

	o.logger.Errorw("enrollment stage failed",
		"sessionId", session.ID,
		"stage", session.Stage,
		"status", session.Status,
		zap.Error(cause),
	)

	ctx, cancel := store.NewDbContext()
	defer cancel()
	if err := o.checkpoint(ctx, session); err != nil {
		o.logger.Errorw("error checkpointing failed session", "sessionId", session.ID, zap.Error(err))
	}
}
