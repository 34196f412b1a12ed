package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/jinzhu/copier"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/katmem/ticket-please/internal/config"
	"github.com/katmem/ticket-please/internal/model"
	"github.com/katmem/ticket-please/internal/repository"
	"github.com/katmem/ticket-please/internal/seating"
)

const relatedLimit = 6

type BrowseMovies interface {
	ListShowingBetween(ctx context.Context, from, to time.Time) ([]model.Movie, error)
	ListComingFrom(ctx context.Context, today, from time.Time) ([]model.Movie, error)
	ListRelated(ctx context.Context, movieID uint64, limit int) ([]model.Movie, error)
	GetByID(ctx context.Context, id uint64) (*model.Movie, error)
	GetBySlug(ctx context.Context, slug string) (*model.Movie, error)
}

type BrowseTheaters interface {
	List(ctx context.Context) ([]model.Theater, error)
}

type BrowseShows interface {
	ListFrom(ctx context.Context, day time.Time) ([]model.ShowListing, error)
	Search(ctx context.Context, q repository.ShowSearchQuery) ([]repository.PublicShowRow, int64, error)
}

type BrowseGenres interface {
	List(ctx context.Context) ([]model.Genre, error)
}

type BrowseScreens interface {
	GetByID(ctx context.Context, id uint64) (*model.Screen, error)
}

// PublicHandler serves the anonymous catalog.  Responses are plain DTOs
// without bookkeeping timestamps.
type PublicHandler struct {
	movies   BrowseMovies
	theaters BrowseTheaters
	shows    BrowseShows
	genres   BrowseGenres
	screens  BrowseScreens
	cfg      config.BookingConfig
	now      func() time.Time
	log      logrus.FieldLogger
}

func NewPublicHandler(movies BrowseMovies, theaters BrowseTheaters, shows BrowseShows, genres BrowseGenres,
	screens BrowseScreens, cfg config.BookingConfig, log logrus.FieldLogger) *PublicHandler {
	return &PublicHandler{
		movies: movies, theaters: theaters, shows: shows, genres: genres, screens: screens,
		cfg: cfg, now: time.Now, log: log,
	}
}

type movieCard struct {
	ID          uint64        `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Year        int           `json:"year"`
	Rating      *float64      `json:"rating,omitempty"`
	DurationMin int           `json:"duration_min"`
	ImageURL    string        `json:"image_url"`
	Genres      []model.Genre `json:"genres"`
}

type movieDetail struct {
	movieCard
	Description string      `json:"description"`
	Language    string      `json:"language"`
	Director    string      `json:"director"`
	Cast        string      `json:"cast"`
	TrailerURL  string      `json:"trailer_url"`
	Related     []movieCard `json:"related"`
}

type publicTheater struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	City    string `json:"city"`
	County  string `json:"county"`
	Address string `json:"address"`
	Zipcode string `json:"zipcode"`
}

type publicShow struct {
	ID          uint64          `json:"id"`
	MovieID     uint64          `json:"movie_id"`
	MovieName   string          `json:"movie_name"`
	MovieSlug   string          `json:"movie_slug"`
	TheaterID   uint64          `json:"theater_id"`
	TheaterName string          `json:"theater_name"`
	City        string          `json:"city"`
	ScreenName  string          `json:"screen_name"`
	Price       string          `json:"price"`
	Programs    []model.Program `json:"programs"`
}

func (h *PublicHandler) today() time.Time {
	y, m, d := h.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cards(movies []model.Movie) ([]movieCard, error) {
	out := make([]movieCard, 0, len(movies))
	if err := copier.Copy(&out, &movies); err != nil {
		return nil, err
	}
	return out, nil
}

// Home splits movies into the ones showing within the booking window and
// the ones whose first program comes later.
func (h *PublicHandler) Home(c echo.Context) error {
	ctx := c.Request().Context()
	today := h.today()
	current, err := h.movies.ListShowingBetween(ctx, today, today.AddDate(0, 0, h.cfg.WindowDays))
	if err != nil {
		return writeError(c, h.log, err)
	}
	coming, err := h.movies.ListComingFrom(ctx, today, today.AddDate(0, 0, h.cfg.ComingAfter))
	if err != nil {
		return writeError(c, h.log, err)
	}
	cur, err := cards(current)
	if err != nil {
		return writeError(c, h.log, err)
	}
	com, err := cards(coming)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"current": cur, "coming": com})
}

// Movie resolves :ref as an id when numeric, otherwise as a slug.
func (h *PublicHandler) Movie(c echo.Context) error {
	ctx := c.Request().Context()
	ref := c.Param("ref")
	var (
		m   *model.Movie
		err error
	)
	if id, perr := strconv.ParseUint(ref, 10, 64); perr == nil {
		m, err = h.movies.GetByID(ctx, id)
	} else {
		m, err = h.movies.GetBySlug(ctx, ref)
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	related, err := h.movies.ListRelated(ctx, m.ID, relatedLimit)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var out movieDetail
	if err := copier.Copy(&out.movieCard, m); err != nil {
		return writeError(c, h.log, err)
	}
	if err := copier.Copy(&out, m); err != nil {
		return writeError(c, h.log, err)
	}
	if out.Related, err = cards(related); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Program lists theaters by city and the shows running from today on.
func (h *PublicHandler) Program(c echo.Context) error {
	ctx := c.Request().Context()
	theaters, err := h.theaters.List(ctx)
	if err != nil {
		return writeError(c, h.log, err)
	}
	shows, err := h.shows.ListFrom(ctx, h.today())
	if err != nil {
		return writeError(c, h.log, err)
	}
	th := make([]publicTheater, 0, len(theaters))
	if err := copier.Copy(&th, &theaters); err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]publicShow, 0, len(shows))
	for _, s := range shows {
		out = append(out, publicShow{
			ID: s.ID, MovieID: s.MovieID, MovieName: s.MovieName, MovieSlug: s.MovieSlug,
			TheaterID: s.TheaterID, TheaterName: s.TheaterName, City: s.City, ScreenName: s.ScreenName,
			Price: s.Price.StringFixed(2), Programs: s.Programs,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"theaters": th, "shows": out})
}

func (h *PublicHandler) Genres(c echo.Context) error {
	genres, err := h.genres.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": genres})
}

func (h *PublicHandler) Theaters(c echo.Context) error {
	theaters, err := h.theaters.List(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]publicTheater, 0, len(theaters))
	if err := copier.Copy(&out, &theaters); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

type layoutCell struct {
	Seat     bool   `json:"seat"`
	Position string `json:"position,omitempty"`
}

// ScreenLayout returns the seating grid of a screen.
func (h *PublicHandler) ScreenLayout(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screen id"})
	}
	sc, err := h.screens.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	pattern, err := seating.Lookup(sc.SeatingPattern)
	if err != nil {
		return writeError(c, h.log, err)
	}
	rows := make([][]layoutCell, len(pattern))
	for r, line := range pattern {
		rows[r] = make([]layoutCell, len(line))
		for col, seat := range line {
			if seat {
				rows[r][col] = layoutCell{Seat: true, Position: seating.Position(r, col)}
			}
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"screen_id": sc.ID, "name": sc.Name, "seating_pattern": sc.SeatingPattern,
		"no_rows": sc.NoRows, "no_cols": sc.NoCols, "no_seats": sc.NoSeats, "rows": rows,
	})
}
