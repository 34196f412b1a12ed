package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/katmem/ticket-please/internal/model"
	"github.com/katmem/ticket-please/internal/service"
)

type AdminTheaters interface {
	Create(ctx context.Context, t *model.Theater) error
	GetByID(ctx context.Context, id uint64) (*model.Theater, error)
	List(ctx context.Context) ([]model.Theater, error)
	Update(ctx context.Context, t *model.Theater) error
	Delete(ctx context.Context, id uint64) error
}

type AdminScreens interface {
	GetByID(ctx context.Context, id uint64) (*model.Screen, error)
	ListByTheater(ctx context.Context, theaterID uint64) ([]model.Screen, error)
	Rename(ctx context.Context, id uint64, name string) error
	Delete(ctx context.Context, id uint64) error
}

type AdminGenres interface {
	Create(ctx context.Context, name string) (*model.Genre, error)
	List(ctx context.Context) ([]model.Genre, error)
	Delete(ctx context.Context, id uint64) error
}

type AdminMovies interface {
	Create(ctx context.Context, m *model.Movie, genreIDs []uint64) error
	Update(ctx context.Context, m *model.Movie, genreIDs []uint64) error
	GetByID(ctx context.Context, id uint64) (*model.Movie, error)
	List(ctx context.Context) ([]model.Movie, error)
	Delete(ctx context.Context, id uint64) error
}

type AdminPrograms interface {
	Create(ctx context.Context, day time.Time, hour time.Duration) (*model.Program, error)
	GetByID(ctx context.Context, id uint64) (*model.Program, error)
	ListFrom(ctx context.Context, day time.Time) ([]model.Program, error)
	Delete(ctx context.Context, id uint64) error
}

type AdminShows interface {
	GetByID(ctx context.Context, id uint64) (*model.Show, error)
	List(ctx context.Context) ([]model.ShowListing, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]model.ShowListing, error)
	Delete(ctx context.Context, id uint64) error
}

// Catalog is the part of service.CatalogService that admin writes go
// through when seats have to be materialized.
type Catalog interface {
	CreateScreen(ctx context.Context, in service.NewScreen) (*model.Screen, error)
	CreateShow(ctx context.Context, d service.ShowDraft) (*model.Show, error)
	UpdateShow(ctx context.Context, d service.ShowDraft) (*model.Show, error)
}

// AdminDeps bundles the stores behind the admin endpoints.
type AdminDeps struct {
	Theaters AdminTheaters
	Screens  AdminScreens
	Genres   AdminGenres
	Movies   AdminMovies
	Programs AdminPrograms
	Shows    AdminShows
	Tickets  Tickets
	Catalog  Catalog
}

// AdminHandler manages the catalog.  Every route sits behind the ADMIN
// role.
type AdminHandler struct {
	d   AdminDeps
	log logrus.FieldLogger
}

func NewAdminHandler(d AdminDeps, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{d: d, log: log}
}

func paramID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
