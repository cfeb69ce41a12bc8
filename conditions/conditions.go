package conditions

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "github.com/careplus/onboarding/errors"
	"github.com/careplus/onboarding/profiles"
	"github.com/careplus/onboarding/store"
)

// Taxonomy is the fixed catalog of chronic-condition categories the manual
// editor offers. Names outside the catalog fall into the 기타 category.
var Taxonomy = map[string][]string{
	"신경계":     {"뇌전증", "치매", "파킨슨병", "뇌졸중 후유증", "만성두통"},
	"심혈관계":    {"심부전", "고혈압", "관상동맥질환", "심방세동", "고지혈증"},
	"호흡기계":    {"COPD", "천식", "폐섬유화증", "수면무호흡증"},
	"혈액/종양계":  {"빈혈", "혈우병", "항응고치료중", "고형암", "혈액암"},
	"내분비계":    {"당뇨병", "갑상선기능이상", "골다공증", "부신기능장애"},
	"신장계":     {"만성신부전", "투석환자", "신증후군"},
	"간담도계":    {"간경변", "B형간염", "C형간염", "비알코올성지방간"},
	"위장관계":    {"위염", "소화성궤양", "염증성장질환", "과민성장증후군"},
	"근골격계":    {"류마티스관절염", "골관절염", "통풍", "전신홍반루푸스"},
	"면역계":     {"자가면역질환", "장기이식 후 면역억제 치료 중"},
	"감염성 질환":  {"HIV", "결핵", "만성바이러스간염"},
	"정신건강계":   {"우울증", "조현병", "양극성장애", "불안장애"},
	"유전/희귀질환": {"PKU", "윌슨병", "헌팅턴병"},
}

const DefaultCategory = "기타"

// CategoryOf returns the taxonomy category a condition name belongs to.
func CategoryOf(name string) string {
	for category, names := range Taxonomy {
		for _, candidate := range names {
			if candidate == name {
				return category
			}
		}
	}
	return DefaultCategory
}

// Service is the manual condition editor over the patient's user-added
// condition list. AI-inferred conditions are read-only here; the editor
// only prevents duplicating them.
type Service interface {
	List(ctx context.Context) ([]profiles.UserCondition, error)
	Add(ctx context.Context, category, name string) ([]profiles.UserCondition, error)
	Remove(ctx context.Context, name string) error
}

func NewService(kv store.KV) (Service, error) {
	return &service{kv: kv}, nil
}

type service struct {
	kv store.KV
}

var _ Service = &service{}

func (s *service) List(ctx context.Context) ([]profiles.UserCondition, error) {
	conditions, err := store.Read[[]profiles.UserCondition](ctx, s.kv, store.KeyUserAddedConditions)
	if errors.Is(err, store.ErrNotFound) {
		return []profiles.UserCondition{}, nil
	} else if err != nil {
		return nil, err
	}
	return *conditions, nil
}

func (s *service) Add(ctx context.Context, category, name string) ([]profiles.UserCondition, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: condition name is required", errs.BadRequest)
	}
	if category == "" {
		category = CategoryOf(name)
	} else if _, ok := Taxonomy[category]; !ok && category != DefaultCategory {
		return nil, fmt.Errorf("%w: unknown condition category %q", errs.BadRequest, category)
	}

	existing, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, condition := range existing {
		if condition.Name == name {
			return nil, fmt.Errorf("%w: condition %q already added", errs.Duplicate, name)
		}
	}
	if inferred, err := s.inferredNames(ctx); err != nil {
		return nil, err
	} else if inferred[name] {
		return nil, fmt.Errorf("%w: condition %q was already inferred from medications", errs.Duplicate, name)
	}

	updated := append(existing, profiles.UserCondition{
		Category: category,
		Name:     name,
		AddedAt:  time.Now(),
	})
	if err := store.Write(ctx, s.kv, store.KeyUserAddedConditions, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Remove(ctx context.Context, name string) error {
	existing, err := s.List(ctx)
	if err != nil {
		return err
	}

	updated := make([]profiles.UserCondition, 0, len(existing))
	for _, condition := range existing {
		if condition.Name != name {
			updated = append(updated, condition)
		}
	}
	if len(updated) == len(existing) {
		return fmt.Errorf("%w: condition %q is not in the list", errs.NotFound, name)
	}

	return store.Write(ctx, s.kv, store.KeyUserAddedConditions, updated)
}

func (s *service) inferredNames(ctx context.Context) (map[string]bool, error) {
	profile, err := store.Read[profiles.Profile](ctx, s.kv, store.KeyPatientProfile)
	if errors.Is(err, store.ErrNotFound) {
		return map[string]bool{}, nil
	} else if err != nil {
		return nil, err
	}

	names := make(map[string]bool, len(profile.ClinicalProfile.InferredConditions))
	for _, condition := range profile.ClinicalProfile.InferredConditions {
		names[condition.DisplayName] = true
	}
	return names, nil
}
