package profiles_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/careplus/onboarding/clinical"
	errs "github.com/careplus/onboarding/errors"
	"github.com/careplus/onboarding/profiles"
	"github.com/careplus/onboarding/store"
	storeTest "github.com/careplus/onboarding/store/test"
)

var _ = Describe("Profiles Service", func() {
	var kv *storeTest.KV
	var service profiles.Service
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		kv = storeTest.NewKV()

		var err error
		service, err = profiles.NewService(kv)
		Expect(err).ToNot(HaveOccurred())
	})

	It("returns not found before enrollment completes", func() {
		_, err := service.Get(ctx)
		Expect(errors.Is(err, errs.NotFound)).To(BeTrue())
	})

	It("round-trips a saved profile", func() {
		saved := profiles.Profile{
			Anthropometrics: profiles.Anthropometrics{Gender: "male", HeightCm: 175, WeightKg: 70},
			ClinicalProfile: clinical.EmptyProfile(),
			CreatedAt:       time.Now(),
		}
		Expect(service.Save(ctx, saved)).To(Succeed())

		read, err := service.Get(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(read.Anthropometrics).To(Equal(saved.Anthropometrics))
		Expect(read.ClinicalProfile).To(Equal(saved.ClinicalProfile))
	})

	It("attaches the live user-added condition list", func() {
		Expect(service.Save(ctx, profiles.Profile{
			ClinicalProfile: clinical.EmptyProfile(),
		})).To(Succeed())

		Expect(store.Write(ctx, kv, store.KeyUserAddedConditions, []profiles.UserCondition{
			{Category: "내분비계", Name: "당뇨병", AddedAt: time.Now()},
		})).To(Succeed())

		read, err := service.Get(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(read.UserAddedConditions).To(HaveLen(1))
		Expect(read.UserAddedConditions[0].Name).To(Equal("당뇨병"))
	})
})

var _ = Describe("Merge Conditions", func() {
	derived := func() clinical.Profile {
		return clinical.Profile{
			KidneyStage:            3,
			KidneyStageDescription: "중등도 감소",
			InferredConditions: map[string]clinical.Condition{
				"hypertension": {DisplayName: "고혈압", SupportingMedicationNames: []string{"로사르탄정 50mg"}},
				"diabetes":     {DisplayName: "당뇨병", SupportingMedicationNames: []string{"메트포르민정 500mg"}},
			},
		}
	}

	It("drops inferred conditions already entered by the user", func() {
		merged := profiles.MergeConditions(derived(), []profiles.UserCondition{
			{Category: "심혈관계", Name: "고혈압"},
		})

		Expect(merged.InferredConditions).ToNot(HaveKey("hypertension"))
		Expect(merged.InferredConditions).To(HaveKey("diabetes"))
	})

	It("keeps everything when there is no overlap", func() {
		merged := profiles.MergeConditions(derived(), []profiles.UserCondition{
			{Category: "호흡기계", Name: "천식"},
		})

		Expect(merged.InferredConditions).To(HaveLen(2))
	})

	It("keeps the non-condition indicators untouched", func() {
		merged := profiles.MergeConditions(derived(), nil)

		Expect(merged.KidneyStage).To(Equal(3))
		Expect(merged.KidneyStageDescription).To(Equal("중등도 감소"))
	})
})
