package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/katmem/ticket-please/internal/middleware"
	"github.com/katmem/ticket-please/internal/model"
	"github.com/katmem/ticket-please/internal/receipt"
	"github.com/katmem/ticket-please/internal/repository"
	"github.com/katmem/ticket-please/internal/utils"
)

// Orders reads a customer's order history.
type Orders interface {
	ListByUser(ctx context.Context, userID uint64) ([]model.Order, error)
	GetByIDForUser(ctx context.Context, id, userID uint64) (*model.Order, error)
}

// Tickets reads sold tickets.
type Tickets interface {
	ListByOrders(ctx context.Context, orderIDs []uint64) ([]model.TicketDetail, error)
	ListSoldForShow(ctx context.Context, showID uint64) ([]model.TicketDetail, error)
	GetByCode(ctx context.Context, code string) (*model.TicketDetail, error)
}

type AccountHandler struct {
	users   Users
	orders  Orders
	tickets Tickets
	cost    int
	log     logrus.FieldLogger
}

func NewAccountHandler(users Users, orders Orders, tickets Tickets, bcryptCost int, log logrus.FieldLogger) *AccountHandler {
	return &AccountHandler{users: users, orders: orders, tickets: tickets, cost: bcryptCost, log: log}
}

type profileReq struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	FirstName string `json:"first_name" validate:"max=128"`
	LastName  string `json:"last_name" validate:"max=128"`
}

type passwordReq struct {
	OldPassword        string `json:"old_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,min=8,max=72"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required,eqfield=NewPassword"`
}

func (h *AccountHandler) Me(c echo.Context) error {
	uid, _ := middleware.UserID(c)
	u, err := h.users.GetByID(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	uid, _ := middleware.UserID(c)
	var req profileReq
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.users.UpdateProfile(ctx, uid, req.Email, req.FirstName, req.LastName); err != nil {
		return writeError(c, h.log, err)
	}
	u, err := h.users.GetByID(ctx, uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// ChangePassword requires the current password.
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	uid, _ := middleware.UserID(c)
	var req passwordReq
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	u, err := h.users.GetByID(ctx, uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.OldPassword) {
		return writeError(c, h.log, &ValidationError{Fields: map[string]string{"old_password": "is incorrect"}})
	}
	if err := h.users.UpdatePassword(ctx, uid, req.NewPassword, h.cost); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MyOrders lists the caller's orders, newest first, each with its tickets.
func (h *AccountHandler) MyOrders(c echo.Context) error {
	uid, _ := middleware.UserID(c)
	ctx := c.Request().Context()
	orders, err := h.orders.ListByUser(ctx, uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.attachTickets(ctx, orders); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": orders})
}

// Receipt renders an order of the caller as PDF.
func (h *AccountHandler) Receipt(c echo.Context) error {
	uid, _ := middleware.UserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx := c.Request().Context()
	order, err := h.orders.GetByIDForUser(ctx, id, uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	orders := []model.Order{*order}
	if err := h.attachTickets(ctx, orders); err != nil {
		return writeError(c, h.log, err)
	}
	u, err := h.users.GetByID(ctx, uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	pdf, err := receipt.OrderPDF(&orders[0], u.FullName())
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`inline; filename="order-%d.pdf"`, id))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// TicketQR serves the QR code of a paid ticket owned by the caller.
// Admins may fetch any ticket.
func (h *AccountHandler) TicketQR(c echo.Context) error {
	uid, _ := middleware.UserID(c)
	t, err := h.tickets.GetByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if !t.Paid || (t.UserID != uid && middleware.Role(c) != model.RoleAdmin) {
		return writeError(c, h.log, repository.ErrTicketNotFound)
	}
	png, err := receipt.TicketQR(t.Code, receipt.DefaultQRSize)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func (h *AccountHandler) attachTickets(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uint64, len(orders))
	index := make(map[uint64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}
	tickets, err := h.tickets.ListByOrders(ctx, ids)
	if err != nil {
		return err
	}
	for _, t := range tickets {
		if t.OrderID == nil {
			continue
		}
		if i, ok := index[*t.OrderID]; ok {
			orders[i].Tickets = append(orders[i].Tickets, t)
		}
	}
	return nil
}
