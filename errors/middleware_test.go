package errors_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/careplus/onboarding/errors"
)

var _ = Describe("Error Handler", func() {
	serve := func(err error) *httptest.ResponseRecorder {
		e := echo.New()
		e.HTTPErrorHandler = errors.CustomHTTPErrorHandler
		e.GET("/", func(ec echo.Context) error {
			return err
		})

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		return rec
	}

	It("maps sentinel errors to their status codes", func() {
		Expect(serve(errors.NotFound).Code).To(Equal(http.StatusNotFound))
		Expect(serve(errors.Duplicate).Code).To(Equal(http.StatusConflict))
		Expect(serve(errors.BadRequest).Code).To(Equal(http.StatusBadRequest))
		Expect(serve(errors.Unauthorized).Code).To(Equal(http.StatusUnauthorized))
		Expect(serve(errors.SessionInProgress).Code).To(Equal(http.StatusConflict))
		Expect(serve(errors.Provider).Code).To(Equal(http.StatusBadGateway))
		Expect(serve(errors.Timeout).Code).To(Equal(http.StatusRequestTimeout))
		Expect(serve(errors.Cancelled).Code).To(Equal(499))
	})

	It("unwraps annotated sentinels", func() {
		err := fmt.Errorf("%w: condition %q already added", errors.Duplicate, "고혈압")
		Expect(serve(err).Code).To(Equal(http.StatusConflict))
	})

	It("keeps other errors as internal server errors", func() {
		Expect(serve(fmt.Errorf("boom")).Code).To(Equal(http.StatusInternalServerError))
	})
})
