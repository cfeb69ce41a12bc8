package healthdata

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	errs "github.com/careplus/onboarding/errors"
	"github.com/careplus/onboarding/healthrecords"
	"github.com/careplus/onboarding/verification"
)

type AnalysisConfig struct {
	Host    string        `envconfig:"CAREPLUS_ANALYSIS_HOST" required:"true"`
	APIKey  string        `envconfig:"CAREPLUS_ANALYSIS_API_KEY"`
	Timeout time.Duration `envconfig:"CAREPLUS_ANALYSIS_TIMEOUT" default:"30s"`
}

func NewAnalysisConfig() (AnalysisConfig, error) {
	cfg := AnalysisConfig{}
	err := envconfig.Process("", &cfg)
	return cfg, err
}

// Analysis is the disease-analysis enrichment result. Predictions only ever
// add to the locally derived profile; the pipeline completes without them.
type Analysis struct {
	Status            string             `json:"status"`
	Message           string             `json:"message"`
	PredictedDiseases []PredictedDisease `json:"predictedDiseases"`
	RiskLevel         string             `json:"riskLevel"`
}

type PredictedDisease struct {
	DiseaseName        string   `json:"diseaseName"`
	Probability        string   `json:"probability"`
	RelatedMedications []string `json:"relatedMedications"`
}

type Analyzer interface {
	AnalyzeDiseases(ctx context.Context, medications []healthrecords.Medication, identity verification.Identity) (*Analysis, error)
}

type analysisRequest struct {
	Medications []healthrecords.Medication `json:"medications"`
	Identity    verification.Identity      `json:"identity"`
}

type analyzer struct {
	httpClient *resty.Client
	logger     *zap.SugaredLogger
}

func NewAnalyzer(cfg AnalysisConfig, logger *zap.SugaredLogger) Analyzer {
	httpClient := resty.New().
		SetBaseURL(cfg.Host).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("API-KEY", cfg.APIKey)

	return &analyzer{
		httpClient: httpClient,
		logger:     logger,
	}
}

var _ Analyzer = &analyzer{}

func (a *analyzer) AnalyzeDiseases(ctx context.Context, medications []healthrecords.Medication, identity verification.Identity) (*Analysis, error) {
	body := analysisRequest{
		Medications: medications,
		Identity:    identity,
	}

	analysis := Analysis{}
	resp, err := a.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&analysis).
		Post("/api/v1.0/integrated/analyze-diseases")
	if err != nil {
		return nil, fmt.Errorf("%w: disease analysis failed: %v", errs.Provider, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: disease analysis failed with status %d", errs.Provider, resp.StatusCode())
	}
	if analysis.Status != "SUCCESS" {
		return nil, fmt.Errorf("%w: disease analysis rejected: %s", errs.Provider, analysis.Message)
	}

	a.logger.Infow("disease analysis completed", "predictions", len(analysis.PredictedDiseases))

	return &analysis, nil
}
