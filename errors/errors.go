package errors

import (
	"errors"
	"net/http"
)

var (
	NotFound            = HttpError{http.StatusNotFound, errors.New("not found")}
	Duplicate           = HttpError{http.StatusConflict, errors.New("duplicate")}
	BadRequest          = HttpError{http.StatusBadRequest, errors.New("bad request")}
	Unauthorized        = HttpError{http.StatusUnauthorized, errors.New("unauthorized")}
	InternalServerError = HttpError{http.StatusInternalServerError, errors.New("internal server error")}

	// SessionInProgress guards the single active enrollment slot. Fatal to the
	// new start call, not to the session that holds the slot.
	SessionInProgress = HttpError{http.StatusConflict, errors.New("enrollment session already in progress")}

	// Provider is returned when an outbound verification, fetch or analysis
	// call fails. Retryable at the same stage.
	Provider = HttpError{http.StatusBadGateway, errors.New("provider error")}

	// Timeout is returned when the verification wait exceeds its bound.
	Timeout = HttpError{http.StatusRequestTimeout, errors.New("verification timed out")}

	// Cancelled is returned when the user aborts the verification wait.
	Cancelled = HttpError{499, errors.New("verification cancelled")}
)

type HttpError struct {
	Code int
	Err  error
}

func (h HttpError) Unwrap() error {
	return h.Err
}

func (h HttpError) Error() string {
	return h.Err.Error()
}
