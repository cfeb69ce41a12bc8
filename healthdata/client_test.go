package healthdata_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	errs "github.com/careplus/onboarding/errors"
	"github.com/careplus/onboarding/healthdata"
	"github.com/careplus/onboarding/healthrecords"
	"github.com/careplus/onboarding/verification"
)

var _ = Describe("Client", func() {
	var server *httptest.Server
	var received map[string]interface{}
	var responseBody string

	session := &verification.Session{
		CxID:            "cx-1",
		ReqTxID:         "req-1",
		Token:           "token-1",
		TxID:            "tx-1",
		PrivateAuthType: "0",
	}
	identity := verification.Identity{
		LegalName:   "홍길동",
		BirthDate:   "19981014",
		PhoneNumber: "01012345678",
	}

	newClient := func() healthdata.Client {
		cfg := healthdata.Config{
			Host:         server.URL,
			FetchTimeout: time.Second,
		}
		return healthdata.NewClient(cfg, zap.NewNop().Sugar())
	}

	BeforeEach(func() {
		received = nil
		responseBody = `{
			"status": "SUCCESS",
			"healthCheckupData": {
				"ResultList": [
					{"Year": "2023년", "CheckUpDate": "07/26", "Location": "서울대학교병원", "GFR": "55"}
				]
			},
			"medicationData": {
				"ResultList": [
					{"JinRyoHyungTae": "처방조제", "ChoBangYakPumMyung": "로사르탄정 50mg", "ChoBangYakPumHyoneung": "고혈압 치료제"}
				]
			}
		}`
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/v1.0/integrated/health-data"))
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())

			w.Header().Set("Content-Type", "application/json")
			_, err := w.Write([]byte(responseBody))
			Expect(err).ToNot(HaveOccurred())
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("keys the fetch by the full verification session", func() {
		payload, err := newClient().FetchIntegrated(context.Background(), session, identity)
		Expect(err).ToNot(HaveOccurred())

		Expect(received).To(HaveKeyWithValue("CxId", "cx-1"))
		Expect(received).To(HaveKeyWithValue("ReqTxId", "req-1"))
		Expect(received).To(HaveKeyWithValue("Token", "token-1"))
		Expect(received).To(HaveKeyWithValue("TxId", "tx-1"))
		Expect(received).To(HaveKeyWithValue("UserName", "홍길동"))

		Expect(payload.Checkups.ResultList).To(HaveLen(1))
		Expect(payload.Checkups.ResultList[0].EGFR).To(Equal("55"))
		Expect(payload.Medications.ResultList).To(HaveLen(1))
		Expect(payload.Medications.ResultList[0].Name).To(Equal("로사르탄정 50mg"))
	})

	It("decodes into a payload the normalizer accepts", func() {
		payload, err := newClient().FetchIntegrated(context.Background(), session, identity)
		Expect(err).ToNot(HaveOccurred())

		record, err := healthrecords.Normalize(payload)
		Expect(err).ToNot(HaveOccurred())
		Expect(record.CheckupEvents[0].Date).To(Equal("2023.07.26"))
	})

	It("surfaces a provider rejection", func() {
		responseBody = `{"status": "ERROR", "message": "expired session"}`

		_, err := newClient().FetchIntegrated(context.Background(), session, identity)
		Expect(errors.Is(err, errs.Provider)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("expired session"))
	})
})

var _ = Describe("Analyzer", func() {
	It("surfaces failures as provider errors", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		analyzer := healthdata.NewAnalyzer(healthdata.AnalysisConfig{
			Host:    server.URL,
			Timeout: time.Second,
		}, zap.NewNop().Sugar())

		_, err := analyzer.AnalyzeDiseases(context.Background(), nil, verification.Identity{})
		Expect(errors.Is(err, errs.Provider)).To(BeTrue())
	})

	It("returns the predictions on success", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/v1.0/integrated/analyze-diseases"))
			w.Header().Set("Content-Type", "application/json")
			_, err := w.Write([]byte(`{
				"status": "SUCCESS",
				"riskLevel": "medium",
				"predictedDiseases": [
					{"diseaseName": "만성신부전", "probability": "0.71", "relatedMedications": ["크레메진세립"]}
				]
			}`))
			Expect(err).ToNot(HaveOccurred())
		}))
		defer server.Close()

		analyzer := healthdata.NewAnalyzer(healthdata.AnalysisConfig{
			Host:    server.URL,
			Timeout: time.Second,
		}, zap.NewNop().Sugar())

		analysis, err := analyzer.AnalyzeDiseases(context.Background(), []healthrecords.Medication{
			{DisplayName: "크레메진세립"},
		}, verification.Identity{})
		Expect(err).ToNot(HaveOccurred())
		Expect(analysis.RiskLevel).To(Equal("medium"))
		Expect(analysis.PredictedDiseases).To(HaveLen(1))
		Expect(analysis.PredictedDiseases[0].DiseaseName).To(Equal("만성신부전"))
	})
})
