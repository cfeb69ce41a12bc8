package accounts_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/careplus/onboarding/accounts"
	errs "github.com/careplus/onboarding/errors"
)

var _ = Describe("Credentials", func() {
	It("rejects short account ids", func() {
		Expect(accounts.ValidateAccountID("abc")).ToNot(Succeed())
	})

	It("rejects account ids with symbols", func() {
		Expect(accounts.ValidateAccountID("hong!14")).ToNot(Succeed())
	})

	It("accepts alphanumeric account ids", func() {
		Expect(accounts.ValidateAccountID("hong1014")).To(Succeed())
	})

	It("rejects short passwords", func() {
		Expect(accounts.ValidatePassword("12345")).ToNot(Succeed())
	})

	It("hashes the password", func() {
		credentials, err := accounts.NewCredentials("hong1014", "secret1")
		Expect(err).ToNot(HaveOccurred())
		Expect(credentials.PasswordHash).ToNot(Equal("secret1"))
		Expect(credentials.PasswordHash).ToNot(BeEmpty())
	})

	It("verifies a correct login", func() {
		credentials, err := accounts.NewCredentials("hong1014", "secret1")
		Expect(err).ToNot(HaveOccurred())
		Expect(credentials.Verify("hong1014", "secret1")).To(Succeed())
	})

	It("rejects a wrong password", func() {
		credentials, err := accounts.NewCredentials("hong1014", "secret1")
		Expect(err).ToNot(HaveOccurred())

		err = credentials.Verify("hong1014", "wrong11")
		Expect(errors.Is(err, errs.Unauthorized)).To(BeTrue())
	})

	It("rejects an unknown account id", func() {
		credentials, err := accounts.NewCredentials("hong1014", "secret1")
		Expect(err).ToNot(HaveOccurred())

		err = credentials.Verify("someone", "secret1")
		Expect(errors.Is(err, errs.Unauthorized)).To(BeTrue())
	})
})

var _ = Describe("Access Tokens", func() {
	cfg := accounts.TokenConfig{
		Secret:   "test-secret",
		Lifetime: time.Hour,
	}

	It("round-trips the account id", func() {
		token, err := accounts.NewAccessToken(cfg, "hong1014")
		Expect(err).ToNot(HaveOccurred())

		accountID, err := accounts.ParseAccessToken(cfg, token)
		Expect(err).ToNot(HaveOccurred())
		Expect(accountID).To(Equal("hong1014"))
	})

	It("rejects a token signed with a different secret", func() {
		token, err := accounts.NewAccessToken(accounts.TokenConfig{Secret: "other", Lifetime: time.Hour}, "hong1014")
		Expect(err).ToNot(HaveOccurred())

		_, err = accounts.ParseAccessToken(cfg, token)
		Expect(errors.Is(err, errs.Unauthorized)).To(BeTrue())
	})

	It("rejects an expired token", func() {
		expired := accounts.TokenConfig{Secret: "test-secret", Lifetime: -time.Minute}
		token, err := accounts.NewAccessToken(expired, "hong1014")
		Expect(err).ToNot(HaveOccurred())

		_, err = accounts.ParseAccessToken(cfg, token)
		Expect(errors.Is(err, errs.Unauthorized)).To(BeTrue())
	})

	It("rejects garbage", func() {
		_, err := accounts.ParseAccessToken(cfg, "not-a-token")
		Expect(errors.Is(err, errs.Unauthorized)).To(BeTrue())
	})
})
