package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "github.com/careplus/onboarding/errors"
	"github.com/careplus/onboarding/accounts"
	"github.com/careplus/onboarding/clinical"
	"github.com/careplus/onboarding/store"
	"github.com/careplus/onboarding/verification"
)

// Profile is the single merged patient record downstream screens consume.
// Once written it is only mutated through the conditions editor.
type Profile struct {
	Identity            verification.Identity `json:"identity"`
	Credentials         accounts.Credentials  `json:"credentials"`
	Anthropometrics     Anthropometrics       `json:"anthropometrics"`
	LatestCheckup       *CheckupSummary       `json:"latestCheckup,omitempty"`
	ClinicalProfile     clinical.Profile      `json:"clinicalProfile"`
	UserAddedConditions []UserCondition       `json:"userAddedConditions"`
	CreatedAt           time.Time             `json:"createdAt"`
	UpdatedAt           time.Time             `json:"updatedAt"`
}

type Anthropometrics struct {
	Gender   string  `json:"gender"`
	HeightCm float64 `json:"heightCm"`
	WeightKg float64 `json:"weightKg"`
}

// CheckupSummary is nil when the provider had no checkup on record.
type CheckupSummary struct {
	Date     string `json:"date"`
	Location string `json:"location"`
}

type UserCondition struct {
	Category string    `json:"category"`
	Name     string    `json:"name"`
	AddedAt  time.Time `json:"addedAt"`
}

type Service interface {
	Get(ctx context.Context) (*Profile, error)
	Save(ctx context.Context, profile Profile) error
}

func NewService(kv store.KV) (Service, error) {
	return &service{kv: kv}, nil
}

type service struct {
	kv store.KV
}

var _ Service = &service{}

// Get returns the persisted profile with the live user-added condition list
// attached. The conditions editor writes that list under its own key, so the
// snapshot embedded at merge time may be stale.
func (s *service) Get(ctx context.Context) (*Profile, error) {
	profile, err := store.Read[Profile](ctx, s.kv, store.KeyPatientProfile)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: no patient profile", errs.NotFound)
	} else if err != nil {
		return nil, err
	}

	conditions, err := store.Read[[]UserCondition](ctx, s.kv, store.KeyUserAddedConditions)
	if err == nil {
		profile.UserAddedConditions = *conditions
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	return profile, nil
}

func (s *service) Save(ctx context.Context, profile Profile) error {
	profile.UpdatedAt = time.Now()
	return store.Write(ctx, s.kv, store.KeyPatientProfile, profile)
}
