package api

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/careplus/onboarding/accounts"
	errs "github.com/careplus/onboarding/errors"
)

const accountIDContextKey = "accountId"

// NewAuthMiddleware guards profile routes with the bearer tokens issued at
// login. The enrollment routes stay open because the pipeline runs before
// the patient can obtain a profile.
func NewAuthMiddleware(cfg accounts.TokenConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ec echo.Context) error {
			header := ec.Request().Header.Get(echo.HeaderAuthorization)
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				return fmt.Errorf("%w: missing bearer token", errs.Unauthorized)
			}

			accountID, err := accounts.ParseAccessToken(cfg, strings.TrimSpace(token))
			if err != nil {
				return err
			}

			ec.Set(accountIDContextKey, accountID)
			return next(ec)
		}
	}
}
