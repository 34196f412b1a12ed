package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/katmem/ticket-please/internal/model"
	"github.com/katmem/ticket-please/internal/service"
)

type theaterReq struct {
	Name    string `json:"name" validate:"required,max=255"`
	City    string `json:"city" validate:"required,max=128"`
	County  string `json:"county" validate:"max=128"`
	Address string `json:"address" validate:"max=255"`
	Zipcode string `json:"zipcode" validate:"max=16"`
}

func (r theaterReq) theater(id uint64) *model.Theater {
	return &model.Theater{ID: id, Name: r.Name, City: r.City, County: r.County, Address: r.Address, Zipcode: r.Zipcode}
}

func (h *AdminHandler) CreateTheater(c echo.Context) error {
	var req theaterReq
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	t := req.theater(0)
	if err := h.d.Theaters.Create(c.Request().Context(), t); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *AdminHandler) ListTheaters(c echo.Context) error {
	items, err := h.d.Theaters.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) GetTheater(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	t, err := h.d.Theaters.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *AdminHandler) UpdateTheater(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req theaterReq
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	ctx := c.Request().Context()
	if err := h.d.Theaters.Update(ctx, req.theater(id)); err != nil {
		return writeError(c, h.log, err)
	}
	t, err := h.d.Theaters.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *AdminHandler) DeleteTheater(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.d.Theaters.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type screenReq struct {
	Name           string `json:"name" validate:"required,max=128"`
	SeatingPattern string `json:"seating_pattern" validate:"required,seating_pattern"`
}

// CreateScreen inserts a screen of theater :id together with its seats.
func (h *AdminHandler) CreateScreen(c echo.Context) error {
	theaterID, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req screenReq
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	sc, err := h.d.Catalog.CreateScreen(c.Request().Context(), service.NewScreen{
		TheaterID: theaterID, Name: req.Name, SeatingPattern: req.SeatingPattern,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, sc)
}

func (h *AdminHandler) ListScreens(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	ctx := c.Request().Context()
	if _, err := h.d.Theaters.GetByID(ctx, id); err != nil {
		return writeError(c, h.log, err)
	}
	items, err := h.d.Screens.ListByTheater(ctx, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type renameReq struct {
	Name string `json:"name" validate:"required,max=128"`
}

// RenameScreen only changes the name; the seating pattern is fixed once
// seats exist.
func (h *AdminHandler) RenameScreen(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req renameReq
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	ctx := c.Request().Context()
	if err := h.d.Screens.Rename(ctx, id, req.Name); err != nil {
		return writeError(c, h.log, err)
	}
	sc, err := h.d.Screens.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, sc)
}

func (h *AdminHandler) DeleteScreen(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.d.Screens.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
