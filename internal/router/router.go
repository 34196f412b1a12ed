// Package router registers every HTTP route on an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/katmem/ticket-please/internal/handler"
	"github.com/katmem/ticket-please/internal/middleware"
	"github.com/katmem/ticket-please/internal/model"
)

// SeatsPath is where an empty seat submission is sent back to.
const SeatsPath = "/v1/booking/seats"

// Handlers bundles the endpoint groups.
type Handlers struct {
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	Account *handler.AccountHandler
	Public  *handler.PublicHandler
	Booking *handler.BookingHandler
	Admin   *handler.AdminHandler
}

// Middleware holds the shared middleware built in main.  Cache applies to
// public reads only; RateLimit applies to everything under /v1.
type Middleware struct {
	Logger    echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// Register mounts /healthz and the /v1 API.
func Register(e *echo.Echo, h Handlers, mw Middleware, jwtSecret string) {
	e.GET("/healthz", h.Health.Health)

	v1 := e.Group("/v1")
	if mw.Logger != nil {
		v1.Use(mw.Logger)
	}
	if mw.RateLimit != nil {
		v1.Use(mw.RateLimit)
	}
	auth := middleware.JWTAuth(jwtSecret)

	registerAuth(v1, h.Auth, auth)
	registerAccount(v1, h.Account, auth)
	registerPublic(v1, h.Public, mw.Cache)
	registerBooking(v1, h.Booking, auth)
	registerAdmin(v1, h.Admin, auth)
}

func registerAuth(v1 *echo.Group, a *handler.AuthHandler, jwt echo.MiddlewareFunc) {
	g := v1.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, jwt)
}

func registerAccount(v1 *echo.Group, a *handler.AccountHandler, jwt echo.MiddlewareFunc) {
	v1.GET("/me", a.Me, jwt)
	v1.PUT("/me/profile", a.UpdateProfile, jwt)
	v1.PUT("/me/password", a.ChangePassword, jwt)
	v1.GET("/my-orders", a.MyOrders, jwt)
	v1.GET("/my-orders/:id/receipt.pdf", a.Receipt, jwt)
	// Admins may fetch any code; the handler checks ownership otherwise.
	v1.GET("/tickets/:code/qr.png", a.TicketQR, jwt)
}

// registerPublic mounts the browse endpoints, each behind the cache.
func registerPublic(v1 *echo.Group, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	var mw []echo.MiddlewareFunc
	if cache != nil {
		mw = append(mw, cache)
	}
	v1.GET("/home", p.Home, mw...)
	v1.GET("/movies/:ref", p.Movie, mw...)
	v1.GET("/program", p.Program, mw...)
	v1.GET("/genres", p.Genres, mw...)
	v1.GET("/theaters", p.Theaters, mw...)
	v1.GET("/screens/:id/layout", p.ScreenLayout, mw...)
	v1.GET("/search/shows", p.SearchShows, mw...)
}

func registerBooking(v1 *echo.Group, b *handler.BookingHandler, jwt echo.MiddlewareFunc) {
	g := v1.Group("/booking", jwt)
	g.GET("/movie", b.MovieChoices)
	g.POST("/movie", b.ChooseMovie)
	g.GET("/theater", b.TheaterChoices)
	g.POST("/theater", b.ChooseTheater)
	g.GET("/date", b.DateChoices)
	g.POST("/date", b.ChooseDate)
	g.GET("/seats", b.SeatMap)
	g.POST("/seats", b.ChooseSeats)
	g.POST("/payment", b.Pay)
	g.GET("/my-tickets", b.MyTickets)
}

func registerAdmin(v1 *echo.Group, a *handler.AdminHandler, jwt echo.MiddlewareFunc) {
	g := v1.Group("/admin", jwt, middleware.RequireRole(model.RoleAdmin))

	g.POST("/theaters", a.CreateTheater)
	g.GET("/theaters", a.ListTheaters)
	g.GET("/theaters/:id", a.GetTheater)
	g.PUT("/theaters/:id", a.UpdateTheater)
	g.DELETE("/theaters/:id", a.DeleteTheater)
	g.POST("/theaters/:id/screens", a.CreateScreen)
	g.GET("/theaters/:id/screens", a.ListScreens)

	g.PATCH("/screens/:id", a.RenameScreen)
	g.DELETE("/screens/:id", a.DeleteScreen)

	g.POST("/genres", a.CreateGenre)
	g.GET("/genres", a.ListGenres)
	g.DELETE("/genres/:id", a.DeleteGenre)

	g.POST("/movies", a.CreateMovie)
	g.GET("/movies", a.ListMovies)
	g.GET("/movies/:id", a.GetMovie)
	g.PUT("/movies/:id", a.UpdateMovie)
	g.DELETE("/movies/:id", a.DeleteMovie)

	g.POST("/programs", a.CreateProgram)
	g.GET("/programs", a.ListPrograms)
	g.GET("/programs/:id", a.GetProgram)
	g.DELETE("/programs/:id", a.DeleteProgram)

	g.POST("/shows", a.CreateShow)
	g.GET("/shows", a.ListShows)
	g.GET("/shows/:id", a.GetShow)
	g.PUT("/shows/:id", a.UpdateShow)
	g.DELETE("/shows/:id", a.DeleteShow)
	g.GET("/shows/:id/tickets", a.ShowTickets)
}
