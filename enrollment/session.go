package enrollment

import (
	"time"

	"github.com/careplus/onboarding/accounts"
	"github.com/careplus/onboarding/clinical"
	"github.com/careplus/onboarding/healthrecords"
	"github.com/careplus/onboarding/profiles"
	"github.com/careplus/onboarding/verification"
)

// Stage identifies how far an enrollment session has progressed. Stages
// only ever advance; a retry re-enters the stage it failed at instead of
// rolling back.
type Stage string

const (
	StageDraft                  Stage = "draft"
	StageCredentialsValidated   Stage = "credentialsValidated"
	StageVerificationRequested  Stage = "verificationRequested"
	StageVerificationConfirmed  Stage = "verificationConfirmed"
	StageHealthDataFetched      Stage = "healthDataFetched"
	StageHealthDataNormalized   Stage = "healthDataNormalized"
	StageClinicalProfileDerived Stage = "clinicalProfileDerived"
	StageProfileMerged          Stage = "profileMerged"
	StageComplete               Stage = "complete"
)

var stageOrder = []Stage{
	StageDraft,
	StageCredentialsValidated,
	StageVerificationRequested,
	StageVerificationConfirmed,
	StageHealthDataFetched,
	StageHealthDataNormalized,
	StageClinicalProfileDerived,
	StageProfileMerged,
	StageComplete,
}

func (s Stage) Index() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

func (s Stage) AtLeast(other Stage) bool {
	return s.Index() >= other.Index()
}

type Status string

const (
	StatusActive  Status = "active"
	StatusFailed  Status = "failed"
	StatusAborted Status = "aborted"
)

// Session is the single in-flight enrollment. It is checkpointed after
// every successful stage transition and deleted when the merged profile is
// written, so a restart re-enters the pipeline wherever it left off.
type Session struct {
	ID              string                                `json:"sessionId"`
	Stage           Stage                                 `json:"stage"`
	Status          Status                                `json:"status"`
	Credentials     accounts.Credentials                  `json:"credentials"`
	Identity        verification.Identity                 `json:"identity"`
	Anthropometrics profiles.Anthropometrics              `json:"anthropometrics"`
	Verification    *verification.Session                 `json:"verificationSession,omitempty"`
	RawHealth       *healthrecords.RawPayload             `json:"rawHealthPayload,omitempty"`
	CanonicalRecord *healthrecords.CanonicalHealthRecord  `json:"canonicalHealthRecord,omitempty"`
	DerivedProfile  *clinical.Profile                     `json:"derivedClinicalProfile,omitempty"`
	MergedProfile   *profiles.Profile                     `json:"mergedProfile,omitempty"`
	Failure         *Failure                              `json:"failure,omitempty"`
	CreatedAt       time.Time                             `json:"createdAt"`
	UpdatedAt       time.Time                             `json:"updatedAt"`
}

// Failure records why a stage transition did not complete. The stage field
// is the last successfully checkpointed stage, which is where a resumed run
// re-enters.
type Failure struct {
	Stage  Stage     `json:"stage"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}
