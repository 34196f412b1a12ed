package handler

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katmem/ticket-please/internal/middleware"
	"github.com/katmem/ticket-please/internal/model"
	"github.com/katmem/ticket-please/internal/repository"
)

type fakeOrders struct{ orders []model.Order }

func (f fakeOrders) ListByUser(_ context.Context, userID uint64) ([]model.Order, error) {
	var out []model.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f fakeOrders) GetByIDForUser(_ context.Context, id, userID uint64) (*model.Order, error) {
	for _, o := range f.orders {
		if o.ID == id && o.UserID == userID {
			cp := o
			return &cp, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

type fakeTickets struct{ tickets []model.TicketDetail }

func (f fakeTickets) ListByOrders(_ context.Context, ids []uint64) ([]model.TicketDetail, error) {
	var out []model.TicketDetail
	for _, t := range f.tickets {
		for _, id := range ids {
			if t.OrderID != nil && *t.OrderID == id {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (f fakeTickets) ListSoldForShow(_ context.Context, showID uint64) ([]model.TicketDetail, error) {
	var out []model.TicketDetail
	for _, t := range f.tickets {
		if t.ShowID == showID && t.Paid {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f fakeTickets) GetByCode(_ context.Context, code string) (*model.TicketDetail, error) {
	for _, t := range f.tickets {
		if t.Code == code {
			cp := t
			return &cp, nil
		}
	}
	return nil, repository.ErrTicketNotFound
}

func soldTickets() fakeTickets {
	order := uint64(10)
	return fakeTickets{tickets: []model.TicketDetail{
		{
			Ticket:    model.Ticket{ID: 1, Code: "paid-code", UserID: 1, ShowID: 3, Paid: true, OrderID: &order},
			MovieName: "Arrival", TheaterName: "Odeon", ScreenName: "Hall 1", Position: "1, 1",
			Price: decimal.NewFromInt(10),
		},
		{Ticket: model.Ticket{ID: 2, Code: "held-code", UserID: 1, ShowID: 3}},
	}}
}

func accountEcho(t *testing.T, users *fakeUsers, tickets fakeTickets) *echo.Echo {
	t.Helper()
	orders := fakeOrders{orders: []model.Order{{ID: 10, UserID: 1, Total: decimal.NewFromInt(10)}}}
	e := newEcho()
	h := NewAccountHandler(users, orders, tickets, 4, nullLog())
	g := e.Group("/v1", middleware.JWTAuth(testSecret))
	g.GET("/me", h.Me)
	g.PUT("/me/password", h.ChangePassword)
	g.GET("/me/orders", h.MyOrders)
	g.GET("/me/orders/:id/receipt", h.Receipt)
	g.GET("/tickets/:code/qr", h.TicketQR)
	return e
}

func registeredAna(t *testing.T) *fakeUsers {
	t.Helper()
	users := newFakeUsers()
	_, err := users.Create(context.Background(), repository.NewUser{
		Email: "ana@example.com", Username: "ana", FirstName: "Ana", Password: "s3cret-pass", Role: model.RoleCustomer,
	}, 4)
	require.NoError(t, err)
	return users
}

func TestChangePassword(t *testing.T) {
	users := registeredAna(t)
	e := accountEcho(t, users, soldTickets())
	auth := map[string]string{echo.HeaderAuthorization: bearer(t, 1, model.RoleCustomer)}

	rec := do(e, http.MethodPut, "/v1/me/password",
		`{"old_password":"nope","new_password":"n3w-secret","new_password_confirm":"n3w-secret"}`, auth)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "is incorrect", decode(t, rec)["fields"].(map[string]any)["old_password"])

	rec = do(e, http.MethodPut, "/v1/me/password",
		`{"old_password":"s3cret-pass","new_password":"n3w-secret","new_password_confirm":"n3w-secret"}`, auth)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(e, http.MethodPut, "/v1/me/password",
		`{"old_password":"n3w-secret","new_password":"s3cret-pass","new_password_confirm":"s3cret-pass"}`, auth)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMyOrdersAttachTickets(t *testing.T) {
	e := accountEcho(t, registeredAna(t), soldTickets())

	rec := do(e, http.MethodGet, "/v1/me/orders", "", map[string]string{
		echo.HeaderAuthorization: bearer(t, 1, model.RoleCustomer),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode(t, rec)["items"].([]any)
	require.Len(t, items, 1)
	tickets := items[0].(map[string]any)["tickets"].([]any)
	require.Len(t, tickets, 1)
	assert.Equal(t, "paid-code", tickets[0].(map[string]any)["code"])
}

func TestReceiptIsPDF(t *testing.T) {
	e := accountEcho(t, registeredAna(t), soldTickets())
	auth := map[string]string{echo.HeaderAuthorization: bearer(t, 1, model.RoleCustomer)}

	rec := do(e, http.MethodGet, "/v1/me/orders/10/receipt", "", auth)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec = do(e, http.MethodGet, "/v1/me/orders/10/receipt", "", map[string]string{
		echo.HeaderAuthorization: bearer(t, 2, model.RoleCustomer),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTicketQRAccess(t *testing.T) {
	e := accountEcho(t, registeredAna(t), soldTickets())
	get := func(code string, userID uint64, role string) int {
		return do(e, http.MethodGet, "/v1/tickets/"+code+"/qr", "", map[string]string{
			echo.HeaderAuthorization: bearer(t, userID, role),
		}).Code
	}

	assert.Equal(t, http.StatusOK, get("paid-code", 1, model.RoleCustomer))
	assert.Equal(t, http.StatusOK, get("paid-code", 99, model.RoleAdmin))
	assert.Equal(t, http.StatusNotFound, get("paid-code", 2, model.RoleCustomer))
	assert.Equal(t, http.StatusNotFound, get("held-code", 1, model.RoleCustomer))
	assert.Equal(t, http.StatusNotFound, get("missing", 1, model.RoleCustomer))
}
