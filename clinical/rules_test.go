package clinical_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/careplus/onboarding/clinical"
)

var _ = Describe("Rules", func() {
	It("falls back to the built-in tables when no path is configured", func() {
		rules, err := clinical.NewRules(clinical.Config{})
		Expect(err).ToNot(HaveOccurred())
		Expect(rules).To(Equal(clinical.DefaultRules()))
	})

	It("loads a rules document from disk", func() {
		document := `{
			"dialysisKeywords": ["투석"],
			"conditions": [
				{"key": "gout", "displayName": "통풍", "keywords": ["알로푸리놀"]}
			]
		}`
		path := filepath.Join(GinkgoT().TempDir(), "rules.json")
		Expect(os.WriteFile(path, []byte(document), 0600)).To(Succeed())

		rules, err := clinical.NewRules(clinical.Config{RulesPath: path})
		Expect(err).ToNot(HaveOccurred())
		Expect(rules.DialysisKeywords).To(Equal([]string{"투석"}))
		Expect(rules.Conditions).To(HaveLen(1))
		Expect(rules.Conditions[0].DisplayName).To(Equal("통풍"))
	})

	It("fails on an unreadable path", func() {
		_, err := clinical.NewRules(clinical.Config{RulesPath: "/does/not/exist.json"})
		Expect(err).To(HaveOccurred())
	})
})
