package enrollment_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/careplus/onboarding/enrollment"
)

var _ = Describe("Guard", func() {
	It("allows only one holder at a time", func() {
		guard := enrollment.NewGuard()
		Expect(guard.TryAcquire()).To(BeTrue())
		Expect(guard.TryAcquire()).To(BeFalse())
		Expect(guard.Held()).To(BeTrue())

		guard.Release()
		Expect(guard.Held()).To(BeFalse())
		Expect(guard.TryAcquire()).To(BeTrue())
	})
})
