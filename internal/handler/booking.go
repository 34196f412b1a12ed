package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/katmem/ticket-please/internal/middleware"
	"github.com/katmem/ticket-please/internal/model"
	"github.com/katmem/ticket-please/internal/payment"
	"github.com/katmem/ticket-please/internal/service"
	"github.com/katmem/ticket-please/internal/wizard"
)

// SessionHeader carries the booking session id in both directions.
const SessionHeader = "X-Booking-Session"

// BookingFlow is the booking wizard as implemented by service.BookingService.
type BookingFlow interface {
	MovieChoices(ctx context.Context) ([]model.Movie, error)
	ChooseMovie(ctx context.Context, st *wizard.State, movieID uint64) error
	TheaterChoices(ctx context.Context, st *wizard.State) ([]model.Theater, error)
	ChooseTheater(ctx context.Context, st *wizard.State, theaterID uint64) error
	DateChoices(ctx context.Context, st *wizard.State) ([]model.Program, error)
	ChooseDate(ctx context.Context, st *wizard.State, programID uint64) error
	SeatMap(ctx context.Context, st *wizard.State) (*service.SeatMap, error)
	ChooseSeats(ctx context.Context, st *wizard.State, positions []string) (*service.SeatSelection, error)
	Pay(ctx context.Context, st *wizard.State, card payment.Card) (*model.Order, error)
	MyTickets(ctx context.Context, st *wizard.State) ([]model.TicketDetail, error)
}

type BookingHandler struct {
	flow     BookingFlow
	sessions wizard.Store
	seatsURL string
	log      logrus.FieldLogger
}

// NewBookingHandler builds the wizard endpoints; seatsURL is where an
// empty seat submission is redirected.
func NewBookingHandler(flow BookingFlow, sessions wizard.Store, seatsURL string, log logrus.FieldLogger) *BookingHandler {
	return &BookingHandler{flow: flow, sessions: sessions, seatsURL: seatsURL, log: log}
}

type stepResp struct {
	Session string       `json:"session"`
	Stage   wizard.Stage `json:"stage"`
	Total   string       `json:"total"`
	Items   any          `json:"items,omitempty"`
}

// session loads the caller's state, or starts one when no header is sent.
// A session of another user is reported as missing.
func (h *BookingHandler) session(c echo.Context) (*wizard.State, error) {
	uid, ok := middleware.UserID(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id := c.Request().Header.Get(SessionHeader)
	if id == "" {
		return wizard.New(uid), nil
	}
	st, err := h.sessions.Load(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if st.UserID != uid {
		return nil, wizard.ErrSessionNotFound
	}
	return st, nil
}

func (h *BookingHandler) save(c echo.Context, st *wizard.State) error {
	if err := h.sessions.Save(c.Request().Context(), st); err != nil {
		return err
	}
	c.Response().Header().Set(SessionHeader, st.SessionID)
	return nil
}

func (h *BookingHandler) reply(c echo.Context, status int, st *wizard.State, items any) error {
	if err := h.save(c, st); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(status, stepResp{Session: st.SessionID, Stage: st.Stage, Total: st.Total.StringFixed(2), Items: items})
}

func (h *BookingHandler) MovieChoices(c echo.Context) error {
	st, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	movies, err := h.flow.MovieChoices(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	items, err := cards(movies)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return h.reply(c, http.StatusOK, st, items)
}

type chooseMovieReq struct {
	MovieID uint64 `json:"movie_id" validate:"required"`
}

func (h *BookingHandler) ChooseMovie(c echo.Context) error {
	st, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req chooseMovieReq
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.flow.ChooseMovie(c.Request().Context(), st, req.MovieID); err != nil {
		return writeError(c, h.log, err)
	}
	return h.reply(c, http.StatusOK, st, nil)
}

func (h *BookingHandler) TheaterChoices(c echo.Context) error {
	st, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	theaters, err := h.flow.TheaterChoices(c.Request().Context(), st)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return h.reply(c, http.StatusOK, st, theaters)
}

type chooseTheaterReq struct {
	TheaterID uint64 `json:"theater_id" validate:"required"`
}

func (h *BookingHandler) ChooseTheater(c echo.Context) error {
	st, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req chooseTheaterReq
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.flow.ChooseTheater(c.Request().Context(), st, req.TheaterID); err != nil {
		return writeError(c, h.log, err)
	}
	return h.reply(c, http.StatusOK, st, nil)
}

func (h *BookingHandler) DateChoices(c echo.Context) error {
	st, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	programs, err := h.flow.DateChoices(c.Request().Context(), st)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return h.reply(c, http.StatusOK, st, programs)
}

type chooseDateReq struct {
	ProgramID uint64 `json:"program_id" validate:"required"`
}

func (h *BookingHandler) ChooseDate(c echo.Context) error {
	st, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req chooseDateReq
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.flow.ChooseDate(c.Request().Context(), st, req.ProgramID); err != nil {
		return writeError(c, h.log, err)
	}
	return h.reply(c, http.StatusOK, st, nil)
}

// SeatMap also consumes the pending flash message, so the state is saved.
func (h *BookingHandler) SeatMap(c echo.Context) error {
	st, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	sm, err := h.flow.SeatMap(c.Request().Context(), st)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.save(c, st); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, sm)
}

type chooseSeatsReq struct {
	Seats []string `json:"seats"`
}

// ChooseSeats answers an empty selection with 303 back to the seat map and
// a queued flash message.
func (h *BookingHandler) ChooseSeats(c echo.Context) error {
	st, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req chooseSeatsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sel, err := h.flow.ChooseSeats(c.Request().Context(), st, req.Seats)
	if errors.Is(err, service.ErrNoSeatsSelected) {
		st.PushFlash(service.NoSeatsFlash)
		if err := h.save(c, st); err != nil {
			return writeError(c, h.log, err)
		}
		return c.Redirect(http.StatusSeeOther, h.seatsURL)
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.save(c, st); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"session": st.SessionID,
		"stage":   st.Stage,
		"tickets": sel.Tickets,
		"amount":  sel.Amount.StringFixed(2),
		"total":   sel.Total.StringFixed(2),
	})
}

func (h *BookingHandler) Pay(c echo.Context) error {
	st, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var card payment.Card
	if err := c.Bind(&card); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	order, err := h.flow.Pay(c.Request().Context(), st, card)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.save(c, st); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"session": st.SessionID, "stage": st.Stage, "order": order})
}

func (h *BookingHandler) MyTickets(c echo.Context) error {
	st, err := h.session(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	tickets, err := h.flow.MyTickets(c.Request().Context(), st)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if tickets == nil {
		tickets = []model.TicketDetail{}
	}
	return h.reply(c, http.StatusOK, st, tickets)
}
