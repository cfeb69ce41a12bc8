package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/careplus/onboarding/accounts"
	"github.com/careplus/onboarding/conditions"
	"github.com/careplus/onboarding/enrollment"
	errs "github.com/careplus/onboarding/errors"
	"github.com/careplus/onboarding/profiles"
)

type Handler struct {
	orchestrator *enrollment.Orchestrator
	profiles     profiles.Service
	conditions   conditions.Service
	tokens       accounts.TokenConfig
}

type Params struct {
	fx.In

	Orchestrator *enrollment.Orchestrator
	Profiles     profiles.Service
	Conditions   conditions.Service
	Tokens       accounts.TokenConfig
}

func NewHandler(p Params) *Handler {
	return &Handler{
		orchestrator: p.Orchestrator,
		profiles:     p.Profiles,
		conditions:   p.Conditions,
		tokens:       p.Tokens,
	}
}

// RegisterPatient
// (POST /v1/auth/register)
func (h *Handler) RegisterPatient(ec echo.Context) error {
	params := enrollment.StartParams{}
	if err := ec.Bind(&params); err != nil {
		return fmt.Errorf("%w: %v", errs.BadRequest, err)
	}

	session, err := h.orchestrator.Start(ec.Request().Context(), params)
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusAccepted, session)
}

type loginRequest struct {
	AccountID string `json:"accountId"`
	Password  string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login
// (POST /v1/auth/login)
func (h *Handler) Login(ec echo.Context) error {
	body := loginRequest{}
	if err := ec.Bind(&body); err != nil {
		return fmt.Errorf("%w: %v", errs.BadRequest, err)
	}

	credentials, err := h.lookupCredentials(ec.Request().Context())
	if err != nil {
		return err
	}
	if err := credentials.Verify(body.AccountID, body.Password); err != nil {
		return err
	}

	token, err := accounts.NewAccessToken(h.tokens, body.AccountID)
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, loginResponse{AccessToken: token})
}

// lookupCredentials prefers the merged profile but falls back to the
// in-flight enrollment session, so a patient can log in before their
// enrollment finishes.
func (h *Handler) lookupCredentials(ctx context.Context) (accounts.Credentials, error) {
	profile, err := h.profiles.Get(ctx)
	if err == nil {
		return profile.Credentials, nil
	} else if !errors.Is(err, errs.NotFound) {
		return accounts.Credentials{}, err
	}

	session, err := h.orchestrator.Session(ctx)
	if errors.Is(err, errs.NotFound) {
		return accounts.Credentials{}, fmt.Errorf("%w: unknown account", errs.Unauthorized)
	} else if err != nil {
		return accounts.Credentials{}, err
	}
	return session.Credentials, nil
}

// GetEnrollment
// (GET /v1/enrollment)
func (h *Handler) GetEnrollment(ec echo.Context) error {
	session, err := h.orchestrator.Session(ec.Request().Context())
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, session)
}

// ResumeEnrollment
// (POST /v1/enrollment/resume)
func (h *Handler) ResumeEnrollment(ec echo.Context) error {
	session, err := h.orchestrator.Resume(ec.Request().Context())
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusAccepted, session)
}

// ConfirmVerification
// (POST /v1/enrollment/verification/confirm)
func (h *Handler) ConfirmVerification(ec echo.Context) error {
	if err := h.orchestrator.ConfirmVerification(); err != nil {
		return err
	}
	return ec.NoContent(http.StatusNoContent)
}

// CancelVerification
// (POST /v1/enrollment/verification/cancel)
func (h *Handler) CancelVerification(ec echo.Context) error {
	if err := h.orchestrator.CancelVerification(); err != nil {
		return err
	}
	return ec.NoContent(http.StatusNoContent)
}

// AbortEnrollment
// (DELETE /v1/enrollment)
func (h *Handler) AbortEnrollment(ec echo.Context) error {
	if err := h.orchestrator.Abort(ec.Request().Context()); err != nil {
		return err
	}
	return ec.NoContent(http.StatusNoContent)
}

// GetProfile
// (GET /v1/profile)
func (h *Handler) GetProfile(ec echo.Context) error {
	profile, err := h.profiles.Get(ec.Request().Context())
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, profile)
}

// ListConditions
// (GET /v1/profile/conditions)
func (h *Handler) ListConditions(ec echo.Context) error {
	list, err := h.conditions.List(ec.Request().Context())
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, list)
}

type addConditionRequest struct {
	Category string `json:"category"`
	Name     string `json:"name"`
}

// AddCondition
// (POST /v1/profile/conditions)
func (h *Handler) AddCondition(ec echo.Context) error {
	body := addConditionRequest{}
	if err := ec.Bind(&body); err != nil {
		return fmt.Errorf("%w: %v", errs.BadRequest, err)
	}

	list, err := h.conditions.Add(ec.Request().Context(), body.Category, body.Name)
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, list)
}

// RemoveCondition
// (DELETE /v1/profile/conditions/{name})
func (h *Handler) RemoveCondition(ec echo.Context) error {
	if err := h.conditions.Remove(ec.Request().Context(), ec.Param("name")); err != nil {
		return err
	}
	return ec.NoContent(http.StatusNoContent)
}
