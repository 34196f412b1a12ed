package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/katmem/ticket-please/internal/model"
)

type genreReq struct {
	Name string `json:"name" validate:"required,max=64"`
}

func (h *AdminHandler) CreateGenre(c echo.Context) error {
	var req genreReq
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	g, err := h.d.Genres.Create(c.Request().Context(), req.Name)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *AdminHandler) ListGenres(c echo.Context) error {
	items, err := h.d.Genres.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) DeleteGenre(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.d.Genres.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type movieReq struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description"`
	Language    string   `json:"language" validate:"max=64"`
	Year        int      `json:"year" validate:"required,min=1888,max=2100"`
	Rating      *float64 `json:"rating" validate:"omitempty,min=0,max=10"`
	DurationMin int      `json:"duration_min" validate:"required,min=1,max=1000"`
	Director    string   `json:"director" validate:"max=255"`
	Cast        string   `json:"cast"`
	TrailerURL  string   `json:"trailer_url" validate:"omitempty,url,max=512"`
	ImageURL    string   `json:"image_url" validate:"omitempty,url,max=512"`
	GenreIDs    []uint64 `json:"genre_ids"`
}

func (r movieReq) movie(id uint64) *model.Movie {
	return &model.Movie{
		ID: id, Name: r.Name, Description: r.Description, Language: r.Language, Year: r.Year,
		Rating: r.Rating, DurationMin: r.DurationMin, Director: r.Director, Cast: r.Cast,
		TrailerURL: r.TrailerURL, ImageURL: r.ImageURL,
	}
}

// CreateMovie derives a unique slug from the name.
func (h *AdminHandler) CreateMovie(c echo.Context) error {
	var req movieReq
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	ctx := c.Request().Context()
	m := req.movie(0)
	if err := h.d.Movies.Create(ctx, m, req.GenreIDs); err != nil {
		return writeError(c, h.log, err)
	}
	fresh, err := h.d.Movies.GetByID(ctx, m.ID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, fresh)
}

func (h *AdminHandler) ListMovies(c echo.Context) error {
	items, err := h.d.Movies.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *AdminHandler) GetMovie(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	m, err := h.d.Movies.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, m)
}

// UpdateMovie replaces the fields and the genre set.
func (h *AdminHandler) UpdateMovie(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req movieReq
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	ctx := c.Request().Context()
	if err := h.d.Movies.Update(ctx, req.movie(id), req.GenreIDs); err != nil {
		return writeError(c, h.log, err)
	}
	m, err := h.d.Movies.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *AdminHandler) DeleteMovie(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.d.Movies.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
