package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/katmem/ticket-please/internal/model"
	"github.com/katmem/ticket-please/internal/repository"
)

// SearchShows pages through screenings.  q matches the movie name, theater
// filters the theater name, city the theater city; from defaults to today
// and to is open ended.
func (h *PublicHandler) SearchShows(c echo.Context) error {
	from := h.today()
	var to time.Time
	if s := c.QueryParam("from"); s != "" {
		d, err := time.Parse(model.DayLayout, s)
		if err != nil {
			return writeError(c, h.log, &ValidationError{Fields: map[string]string{"from": "must be YYYY-MM-DD"}})
		}
		from = d
	}
	if s := c.QueryParam("to"); s != "" {
		d, err := time.Parse(model.DayLayout, s)
		if err != nil || d.Before(from) {
			return writeError(c, h.log, &ValidationError{Fields: map[string]string{"to": "must be YYYY-MM-DD on or after from"}})
		}
		to = d
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	ps, _ := strconv.Atoi(c.QueryParam("page_size"))
	if ps < 1 {
		ps = 20
	}
	if ps > 100 {
		ps = 100
	}

	items, total, err := h.shows.Search(c.Request().Context(), repository.ShowSearchQuery{
		Movie:    strings.TrimSpace(c.QueryParam("q")),
		Theater:  strings.TrimSpace(c.QueryParam("theater")),
		City:     strings.TrimSpace(c.QueryParam("city")),
		From:     from,
		To:       to,
		Page:     page,
		PageSize: ps,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	if items == nil {
		items = []repository.PublicShowRow{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"total":     total,
		"page":      page,
		"page_size": ps,
	})
}
