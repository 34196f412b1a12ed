package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/katmem/ticket-please/internal/config"
	"github.com/katmem/ticket-please/internal/middleware"
	"github.com/katmem/ticket-please/internal/model"
	"github.com/katmem/ticket-please/internal/repository"
	"github.com/katmem/ticket-please/internal/utils"
)

const dbTimeout = 5 * time.Second

// Users is the account store used by auth and account endpoints.
type Users interface {
	Create(ctx context.Context, nu repository.NewUser, cost int) (uint64, error)
	GetByLogin(ctx context.Context, login string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	UpdateProfile(ctx context.Context, id uint64, email, first, last string) error
	UpdatePassword(ctx context.Context, id uint64, password string, cost int) error
}

// RefreshTokens stores hashed refresh tokens.
type RefreshTokens interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

type AuthHandler struct {
	cfg    config.Config
	users  Users
	tokens RefreshTokens
	log    logrus.FieldLogger
}

func NewAuthHandler(cfg config.Config, users Users, tokens RefreshTokens, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{cfg: cfg, users: users, tokens: tokens, log: log}
}

type registerReq struct {
	Email           string `json:"email" validate:"required,email,max=255"`
	Username        string `json:"username" validate:"required,alphanum,min=3,max=64"`
	FirstName       string `json:"first_name" validate:"max=128"`
	LastName        string `json:"last_name" validate:"max=128"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,oneof=CUSTOMER ADMIN"`
}

type loginReq struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(u *model.User) userPart {
	return userPart{ID: u.ID, Email: u.Email, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Role: u.Role}
}

// Register creates a customer account and signs it in.  ADMIN may only be
// requested when admin signup is enabled.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	role := model.RoleCustomer
	if req.Role == model.RoleAdmin {
		if !h.cfg.AdminSignup {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin signup disabled"})
		}
		role = model.RoleAdmin
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	id, err := h.users.Create(ctx, repository.NewUser{
		Email: req.Email, Username: req.Username, FirstName: req.FirstName,
		LastName: req.LastName, Password: req.Password, Role: role,
	}, h.cfg.BcryptCost)
	if err != nil {
		return writeError(c, h.log, err)
	}
	u, err := h.users.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return writeError(c, h.log, err)
	}
	h.log.WithFields(logrus.Fields{"user_id": id, "role": role}).Info("user registered")
	return c.JSON(http.StatusCreated, resp)
}

// Login accepts an email or a username.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.users.GetByLogin(ctx, req.Login)
	if errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh rotates a refresh token and issues a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	userID, err := h.tokens.ValidateRefresh(ctx, hash, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrRefreshInvalid) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return writeError(c, h.log, err)
	}
	if err := h.tokens.RevokeByHash(ctx, hash); err != nil {
		return writeError(c, h.log, err)
	}
	u, err := h.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the given refresh token, or every token of the caller
// when no token is sent.  The route sits behind JWTAuth.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.Bind(&req)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		if err := h.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw)); err != nil {
			return writeError(c, h.log, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.tokens.RevokeAllForUser(ctx, uid); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) issue(ctx context.Context, u *model.User) (*authResp, error) {
	access, err := utils.NewAccessToken(h.cfg.JWTSecret, u.ID, u.Role, h.cfg.AccessTTLMin)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(h.cfg.RefreshTTLDays)
	if err != nil {
		return nil, err
	}
	if err := h.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, err
	}
	return &authResp{
		User:    toUserPart(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}
