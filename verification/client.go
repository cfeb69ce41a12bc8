package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	errs "github.com/careplus/onboarding/errors"
)

type Config struct {
	Host           string        `envconfig:"CAREPLUS_VERIFICATION_HOST" required:"true"`
	APIKey         string        `envconfig:"CAREPLUS_VERIFICATION_API_KEY"`
	RequestTimeout time.Duration `envconfig:"CAREPLUS_VERIFICATION_REQUEST_TIMEOUT" default:"60s"`
	// ConfirmationTimeout bounds the cooperative wait for the user to
	// finish the handshake in the provider's app.
	ConfirmationTimeout time.Duration `envconfig:"CAREPLUS_VERIFICATION_CONFIRMATION_TIMEOUT" default:"2m"`
}

func NewConfig() (Config, error) {
	cfg := Config{}
	err := envconfig.Process("", &cfg)
	return cfg, err
}

// Identity is the personal information the verification provider checks.
// BirthDate is the full 8-digit calendar date and PhoneNumber is the
// normalized 11-digit number.
type Identity struct {
	LegalName   string `json:"legalName"`
	BirthDate   string `json:"birthDate"`
	PhoneNumber string `json:"phoneNumber"`
}

// Session is the opaque handle bundle the provider issues for one identity
// check. The integrated health-data fetch is keyed by it.
type Session struct {
	CxID            string `json:"cxId"`
	ReqTxID         string `json:"reqTxId"`
	Token           string `json:"token"`
	TxID            string `json:"txId"`
	PrivateAuthType string `json:"privateAuthType"`
}

type Client interface {
	// Request asks the provider to start an identity check. Failures are
	// retryable by calling Request again; no retry loop runs internally.
	Request(ctx context.Context, identity Identity) (*Session, error)
}

type requestBody struct {
	UserName            string `json:"UserName"`
	BirthDate           string `json:"BirthDate"`
	UserCellphoneNumber string `json:"UserCellphoneNumber"`
	PrivateAuthType     string `json:"PrivateAuthType"`
}

type requestResponse struct {
	Status          string `json:"Status"`
	Message         string `json:"Message"`
	CxID            string `json:"CxId"`
	ReqTxID         string `json:"ReqTxId"`
	Token           string `json:"Token"`
	TxID            string `json:"TxId"`
	PrivateAuthType string `json:"PrivateAuthType"`
}

type client struct {
	httpClient *resty.Client
	logger     *zap.SugaredLogger
}

func NewClient(cfg Config, logger *zap.SugaredLogger) Client {
	httpClient := resty.New().
		SetBaseURL(cfg.Host).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("API-KEY", cfg.APIKey)

	return &client{
		httpClient: httpClient,
		logger:     logger,
	}
}

var _ Client = &client{}

func (c *client) Request(ctx context.Context, identity Identity) (*Session, error) {
	body := requestBody{
		UserName:            identity.LegalName,
		BirthDate:           identity.BirthDate,
		UserCellphoneNumber: identity.PhoneNumber,
		PrivateAuthType:     "0",
	}

	response := requestResponse{}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&response).
		Post("/api/v1.0/simpleauth/request")
	if err != nil {
		return nil, fmt.Errorf("%w: verification request failed: %v", errs.Provider, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: verification request failed with status %d", errs.Provider, resp.StatusCode())
	}
	if response.Status != "OK" {
		return nil, fmt.Errorf("%w: verification request rejected: %s", errs.Provider, response.Message)
	}
	if response.ReqTxID == "" || response.CxID == "" || response.Token == "" {
		return nil, fmt.Errorf("%w: verification response is missing session fields", errs.Provider)
	}

	c.logger.Infow("verification session requested", "reqTxId", response.ReqTxID)

	return &Session{
		CxID:            response.CxID,
		ReqTxID:         response.ReqTxID,
		Token:           response.Token,
		TxID:            response.TxID,
		PrivateAuthType: response.PrivateAuthType,
	}, nil
}
