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

type Config struct {
	Host   string `envconfig:"CAREPLUS_HEALTHDATA_HOST" required:"true"`
	APIKey string `envconfig:"CAREPLUS_HEALTHDATA_API_KEY"`
	// FetchTimeout has a high ceiling because the insurance provider joins
	// several upstream registries before responding.
	FetchTimeout time.Duration `envconfig:"CAREPLUS_HEALTHDATA_FETCH_TIMEOUT" default:"2m"`
}

func NewConfig() (Config, error) {
	cfg := Config{}
	err := envconfig.Process("", &cfg)
	return cfg, err
}

// Client fetches the insurance-held health records reachable through a
// confirmed verification session.
type Client interface {
	FetchIntegrated(ctx context.Context, session *verification.Session, identity verification.Identity) (*healthrecords.RawPayload, error)
}

type fetchRequest struct {
	CxID                string `json:"CxId"`
	ReqTxID             string `json:"ReqTxId"`
	Token               string `json:"Token"`
	TxID                string `json:"TxId"`
	PrivateAuthType     string `json:"PrivateAuthType"`
	UserName            string `json:"UserName"`
	BirthDate           string `json:"BirthDate"`
	UserCellphoneNumber string `json:"UserCellphoneNumber"`
}

type client struct {
	httpClient *resty.Client
	logger     *zap.SugaredLogger
}

func NewClient(cfg Config, logger *zap.SugaredLogger) Client {
	httpClient := resty.New().
		SetBaseURL(cfg.Host).
		SetTimeout(cfg.FetchTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("API-KEY", cfg.APIKey)

	return &client{
		httpClient: httpClient,
		logger:     logger,
	}
}

var _ Client = &client{}

func (c *client) FetchIntegrated(ctx context.Context, session *verification.Session, identity verification.Identity) (*healthrecords.RawPayload, error) {
	body := fetchRequest{
		CxID:                session.CxID,
		ReqTxID:             session.ReqTxID,
		Token:               session.Token,
		TxID:                session.TxID,
		PrivateAuthType:     session.PrivateAuthType,
		UserName:            identity.LegalName,
		BirthDate:           identity.BirthDate,
		UserCellphoneNumber: identity.PhoneNumber,
	}

	payload := healthrecords.RawPayload{}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&payload).
		Post("/api/v1.0/integrated/health-data")
	if err != nil {
		return nil, fmt.Errorf("%w: health-data fetch failed: %v", errs.Provider, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: health-data fetch failed with status %d", errs.Provider, resp.StatusCode())
	}
	if payload.Status != "SUCCESS" {
		return nil, fmt.Errorf("%w: health-data fetch rejected: %s", errs.Provider, payload.Message)
	}

	c.logger.Infow("integrated health data fetched",
		"checkups", len(payload.Checkups.ResultList),
		"medications", len(payload.Medications.ResultList),
	)

	return &payload, nil
}
