package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/kelseyhightower/envconfig"

	errs "github.com/careplus/onboarding/errors"
)

type TokenConfig struct {
	Secret   string        `envconfig:"CAREPLUS_JWT_SECRET" required:"true"`
	Lifetime time.Duration `envconfig:"CAREPLUS_JWT_LIFETIME" default:"24h"`
}

func NewTokenConfig() (TokenConfig, error) {
	cfg := TokenConfig{}
	err := envconfig.Process("", &cfg)
	return cfg, err
}

// NewAccessToken issues a signed token for a successfully logged-in account.
func NewAccessToken(cfg TokenConfig, accountID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Lifetime)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("error signing access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates a bearer token and returns the account id.
func ParseAccessToken(cfg TokenConfig, tokenString string) (string, error) {
	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: invalid access token", errs.Unauthorized)
	}

	return claims.Subject, nil
}
