package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katmem/ticket-please/internal/config"
	"github.com/katmem/ticket-please/internal/model"
	"github.com/katmem/ticket-please/internal/repository"
	"github.com/katmem/ticket-please/internal/service"
)

type fakeMovies struct {
	current, coming, related []model.Movie
	bySlug                   map[string]*model.Movie
	gotFrom, gotTo           time.Time
}

func (f *fakeMovies) ListShowingBetween(_ context.Context, from, to time.Time) ([]model.Movie, error) {
	f.gotFrom, f.gotTo = from, to
	return f.current, nil
}

func (f *fakeMovies) ListComingFrom(_ context.Context, _, _ time.Time) ([]model.Movie, error) {
	return f.coming, nil
}

func (f *fakeMovies) ListRelated(_ context.Context, _ uint64, _ int) ([]model.Movie, error) {
	return f.related, nil
}

func (f *fakeMovies) GetByID(_ context.Context, id uint64) (*model.Movie, error) {
	for _, m := range f.bySlug {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, repository.ErrMovieNotFound
}

func (f *fakeMovies) GetBySlug(_ context.Context, slug string) (*model.Movie, error) {
	if m, ok := f.bySlug[slug]; ok {
		return m, nil
	}
	return nil, repository.ErrMovieNotFound
}

type fakeScreens struct{ sc *model.Screen }

func (f fakeScreens) GetByID(_ context.Context, id uint64) (*model.Screen, error) {
	if f.sc == nil || f.sc.ID != id {
		return nil, repository.ErrScreenNotFound
	}
	return f.sc, nil
}

var arrival = &model.Movie{
	ID: 1, Name: "Arrival", Slug: "arrival", Year: 2016, DurationMin: 116,
	Director: "Denis Villeneuve", Genres: []model.Genre{{ID: 2, Name: "Sci-Fi"}},
}

func publicEcho(movies BrowseMovies, screens BrowseScreens) (*echo.Echo, *PublicHandler) {
	e := newEcho()
	h := NewPublicHandler(movies, nil, nil, nil, screens, config.BookingConfig{WindowDays: 7, ComingAfter: 8}, nullLog())
	h.now = func() time.Time { return time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC) }
	e.GET("/v1/home", h.Home)
	e.GET("/v1/movies/:ref", h.Movie)
	e.GET("/v1/screens/:id/layout", h.ScreenLayout)
	return e, h
}

func TestHomeSplitsCurrentAndComing(t *testing.T) {
	movies := &fakeMovies{
		current: []model.Movie{*arrival},
		coming:  []model.Movie{{ID: 9, Name: "Dune", Slug: "dune"}},
	}
	e, _ := publicEcho(movies, nil)

	rec := do(e, http.MethodGet, "/v1/home", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)

	current := body["current"].([]any)
	require.Len(t, current, 1)
	card := current[0].(map[string]any)
	assert.Equal(t, "arrival", card["slug"])
	assert.Len(t, card["genres"], 1)
	assert.NotContains(t, card, "director")

	coming := body["coming"].([]any)
	require.Len(t, coming, 1)
	assert.Equal(t, "dune", coming[0].(map[string]any)["slug"])

	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), movies.gotFrom)
	assert.Equal(t, time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC), movies.gotTo)
}

func TestMovieBySlugOrID(t *testing.T) {
	movies := &fakeMovies{
		bySlug:  map[string]*model.Movie{"arrival": arrival},
		related: []model.Movie{{ID: 3, Name: "Sicario", Slug: "sicario"}},
	}
	e, _ := publicEcho(movies, nil)

	for _, ref := range []string{"arrival", "1"} {
		rec := do(e, http.MethodGet, "/v1/movies/"+ref, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, ref)
		body := decode(t, rec)
		assert.Equal(t, "Arrival", body["name"])
		assert.Equal(t, "Denis Villeneuve", body["director"])
		assert.Len(t, body["related"], 1)
	}

	rec := do(e, http.MethodGet, "/v1/movies/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScreenLayout(t *testing.T) {
	sc := &model.Screen{ID: 4, Name: "Hall 1", SeatingPattern: "studio", NoRows: 4, NoCols: 6, NoSeats: 24}
	e, _ := publicEcho(&fakeMovies{}, fakeScreens{sc: sc})

	rec := do(e, http.MethodGet, "/v1/screens/4/layout", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode(t, rec)["rows"].([]any)
	require.Len(t, rows, 4)
	first := rows[0].([]any)[0].(map[string]any)
	assert.Equal(t, "1, 1", first["position"])

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/v1/screens/5/layout", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/v1/screens/x/layout", "", nil).Code)
}

type fakeCatalog struct{ err error }

func (f fakeCatalog) CreateScreen(_ context.Context, in service.NewScreen) (*model.Screen, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Screen{ID: 1, TheaterID: in.TheaterID, Name: in.Name, SeatingPattern: in.SeatingPattern}, nil
}

func (f fakeCatalog) CreateShow(_ context.Context, d service.ShowDraft) (*model.Show, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Show{ID: 1, MovieID: d.MovieID, TheaterID: d.TheaterID, ScreenID: d.ScreenID, Price: d.Price}, nil
}

func (f fakeCatalog) UpdateShow(ctx context.Context, d service.ShowDraft) (*model.Show, error) {
	return f.CreateShow(ctx, d)
}

func adminEcho(cat Catalog) *echo.Echo {
	e := newEcho()
	h := NewAdminHandler(AdminDeps{Catalog: cat}, nullLog())
	e.POST("/v1/admin/shows", h.CreateShow)
	e.POST("/v1/admin/theaters/:id/screens", h.CreateScreen)
	return e
}

func TestAdminCreateShow(t *testing.T) {
	const body = `{"movie_id":1,"theater_id":2,"screen_id":3,"price":"9.50","program_ids":[7,8]}`

	rec := do(adminEcho(fakeCatalog{}), http.MethodPost, "/v1/admin/shows", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(adminEcho(fakeCatalog{err: &service.RuleError{Rule: service.RuleOverlap, Message: "screen is busy"}}),
		http.MethodPost, "/v1/admin/shows", body, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, service.RuleOverlap, resp["rule"])
	assert.Equal(t, "screen is busy", resp["error"])

	rec = do(adminEcho(fakeCatalog{}), http.MethodPost, "/v1/admin/shows",
		`{"movie_id":1,"theater_id":2,"screen_id":3,"price":"0","program_ids":[7]}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "must be greater than 0", decode(t, rec)["fields"].(map[string]any)["price"])

	rec = do(adminEcho(fakeCatalog{}), http.MethodPost, "/v1/admin/shows",
		`{"movie_id":1,"theater_id":2,"screen_id":3,"price":"5"}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "is required", decode(t, rec)["fields"].(map[string]any)["program_ids"])
}

func TestAdminCreateScreen(t *testing.T) {
	rec := do(adminEcho(fakeCatalog{}), http.MethodPost, "/v1/admin/theaters/2/screens",
		`{"name":"Hall 1","seating_pattern":"studio"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(adminEcho(fakeCatalog{}), http.MethodPost, "/v1/admin/theaters/2/screens",
		`{"name":"Hall 1","seating_pattern":"round"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(adminEcho(fakeCatalog{err: repository.ErrTheaterNotFound}), http.MethodPost,
		"/v1/admin/theaters/9/screens", `{"name":"Hall 1","seating_pattern":"studio"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
