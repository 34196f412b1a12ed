package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/katmem/ticket-please/internal/model"
	"github.com/katmem/ticket-please/internal/service"
)

type programReq struct {
	Day  string `json:"day" validate:"required,datetime=2006-01-02"`
	Hour string `json:"hour" validate:"required"`
}

func (h *AdminHandler) CreateProgram(c echo.Context) error {
	var req programReq
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	day, _ := time.Parse(model.DayLayout, req.Day)
	hour, err := model.ParseClock(req.Hour)
	if err != nil {
		return writeError(c, h.log, &ValidationError{Fields: map[string]string{"hour": "must be HH:MM"}})
	}
	p, err := h.d.Programs.Create(c.Request().Context(), day, hour)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// ListPrograms returns programs from ?from= on, or all of them.
func (h *AdminHandler) ListPrograms(c echo.Context) error {
	from := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	if s := c.QueryParam("from"); s != "" {
		d, err := time.Parse(model.DayLayout, s)
		if err != nil {
			return writeError(c, h.log, &ValidationError{Fields: map[string]string{"from": "must be YYYY-MM-DD"}})
		}
		from = d
	}
	items, err := h.d.Programs.ListFrom(c.Request().Context(), from)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) GetProgram(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	p, err := h.d.Programs.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminHandler) DeleteProgram(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.d.Programs.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type showReq struct {
	MovieID    uint64          `json:"movie_id" validate:"required"`
	TheaterID  uint64          `json:"theater_id" validate:"required"`
	ScreenID   uint64          `json:"screen_id" validate:"required"`
	Price      decimal.Decimal `json:"price"`
	ProgramIDs []uint64        `json:"program_ids" validate:"required,min=1"`
}

func (r showReq) draft(id uint64) service.ShowDraft {
	return service.ShowDraft{
		ShowID: id, MovieID: r.MovieID, TheaterID: r.TheaterID, ScreenID: r.ScreenID,
		Price: r.Price, ProgramIDs: r.ProgramIDs,
	}
}

// CreateShow applies the scheduling rules and materializes show seats.
func (h *AdminHandler) CreateShow(c echo.Context) error {
	var req showReq
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	if !req.Price.IsPositive() {
		return writeError(c, h.log, &ValidationError{Fields: map[string]string{"price": "must be greater than 0"}})
	}
	s, err := h.d.Catalog.CreateShow(c.Request().Context(), req.draft(0))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, s)
}

// ListShows accepts an optional ?from=&to= day range.
func (h *AdminHandler) ListShows(c echo.Context) error {
	ctx := c.Request().Context()
	fromS, toS := c.QueryParam("from"), c.QueryParam("to")
	var (
		items []model.ShowListing
		err   error
	)
	if fromS == "" && toS == "" {
		items, err = h.d.Shows.List(ctx)
	} else {
		from, ferr := time.Parse(model.DayLayout, fromS)
		to, terr := time.Parse(model.DayLayout, toS)
		if ferr != nil || terr != nil || to.Before(from) {
			return writeError(c, h.log, &ValidationError{Fields: map[string]string{"from": "from and to must be YYYY-MM-DD with from <= to"}})
		}
		items, err = h.d.Shows.ListBetween(ctx, from, to)
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) GetShow(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	s, err := h.d.Shows.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *AdminHandler) UpdateShow(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req showReq
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	if !req.Price.IsPositive() {
		return writeError(c, h.log, &ValidationError{Fields: map[string]string{"price": "must be greater than 0"}})
	}
	s, err := h.d.Catalog.UpdateShow(c.Request().Context(), req.draft(id))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *AdminHandler) DeleteShow(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.d.Shows.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ShowTickets lists the paid tickets of a show.
func (h *AdminHandler) ShowTickets(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	ctx := c.Request().Context()
	if _, err := h.d.Shows.GetByID(ctx, id); err != nil {
		return writeError(c, h.log, err)
	}
	items, err := h.d.Tickets.ListSoldForShow(ctx, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if items == nil {
		items = []model.TicketDetail{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}
