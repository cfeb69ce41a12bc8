package enrollment

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errs "github.com/careplus/onboarding/errors"
	"github.com/careplus/onboarding/healthrecords"
)

var _ = Describe("Normalization stage", func() {
	It("keeps the malformed record error in the failure chain", func() {
		o := &Orchestrator{}
		session := &Session{
			Stage: StageHealthDataFetched,
			RawHealth: &healthrecords.RawPayload{
				Checkups: healthrecords.RawCheckupData{
					ResultList: []healthrecords.RawCheckupEntry{
						{Year: "2023년", CheckupDate: "07/26", EGFR: "N/A"},
					},
				},
			},
		}

		_, err := o.step(context.Background(), session)
		Expect(errors.Is(err, errs.BadRequest)).To(BeTrue())

		malformed := &healthrecords.MalformedRecordError{}
		Expect(errors.As(err, &malformed)).To(BeTrue())
		Expect(malformed.Field).To(Equal("GFR"))
	})
})
