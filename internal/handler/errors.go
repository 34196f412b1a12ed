package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/katmem/ticket-please/internal/payment"
	"github.com/katmem/ticket-please/internal/repository"
	"github.com/katmem/ticket-please/internal/seating"
	"github.com/katmem/ticket-please/internal/service"
	"github.com/katmem/ticket-please/internal/wizard"
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{wizard.ErrStageOutOfOrder, http.StatusConflict},
	{wizard.ErrSessionNotFound, http.StatusNotFound},
	{service.ErrSeatTaken, http.StatusConflict},
	{service.ErrSeatNotFound, http.StatusNotFound},
	{service.ErrNotEligible, http.StatusUnprocessableEntity},
	{service.ErrNothingToPay, http.StatusConflict},
	{seating.ErrUnknownPattern, http.StatusUnprocessableEntity},
	{repository.ErrConflict, http.StatusConflict},
	{repository.ErrEmailExists, http.StatusConflict},
	{repository.ErrUsernameExists, http.StatusConflict},
	{repository.ErrGenreExists, http.StatusConflict},
	{repository.ErrProgramExists, http.StatusConflict},
	{repository.ErrUserNotFound, http.StatusNotFound},
	{repository.ErrTheaterNotFound, http.StatusNotFound},
	{repository.ErrScreenNotFound, http.StatusNotFound},
	{repository.ErrGenreNotFound, http.StatusNotFound},
	{repository.ErrMovieNotFound, http.StatusNotFound},
	{repository.ErrProgramNotFound, http.StatusNotFound},
	{repository.ErrShowNotFound, http.StatusNotFound},
	{repository.ErrShowSeatNotFound, http.StatusNotFound},
	{repository.ErrTicketNotFound, http.StatusNotFound},
	{repository.ErrOrderNotFound, http.StatusNotFound},
}

// writeError renders err as {"error": ...}.  Anything unrecognised is a
// 500 and is logged with the request route.
func writeError(c echo.Context, log logrus.FieldLogger, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "validation failed", "fields": verr.Fields})
	}
	var cerr *payment.ValidationError
	if errors.As(err, &cerr) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "validation failed", "fields": cerr.Fields})
	}
	var rerr *service.RuleError
	if errors.As(err, &rerr) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": rerr.Message, "rule": rerr.Rule})
	}
	var herr *echo.HTTPError
	if errors.As(err, &herr) {
		return c.JSON(herr.Code, echo.Map{"error": herr.Message})
	}
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return c.JSON(s.status, echo.Map{"error": s.err.Error()})
		}
	}
	log.WithError(err).WithFields(logrus.Fields{
		"method": c.Request().Method,
		"route":  c.Path(),
	}).Error("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
