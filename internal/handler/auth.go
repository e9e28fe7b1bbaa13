package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/green-city-platform/internal/config"
	"github.com/iliyamo/green-city-platform/internal/logger"
	"github.com/iliyamo/green-city-platform/internal/middleware"
	"github.com/iliyamo/green-city-platform/internal/model"
	"github.com/iliyamo/green-city-platform/internal/repository"
	"github.com/iliyamo/green-city-platform/internal/session"
	"github.com/iliyamo/green-city-platform/internal/utils"
)

// AuthHandler serves registration, login and token lifecycle endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Cities   *repository.CityRepo
	Sessions session.Store
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, cities *repository.CityRepo, s session.Store) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Cities: cities, Sessions: s}
}

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	City     string `json:"city"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User    *model.User `json:"user"`
	Access  tokenPart   `json:"access"`
	Refresh tokenPart   `json:"refresh"`
}

// Register creates a regular user in an existing city and logs them in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.City = strings.TrimSpace(req.City)
	if req.Username == "" || req.Email == "" || req.Password == "" || req.City == "" {
		return jsonError(c, http.StatusBadRequest, "username, email, password and city are required")
	}
	if !strings.Contains(req.Email, "@") {
		return jsonError(c, http.StatusBadRequest, "invalid email")
	}
	if utf8.RuneCountInString(req.Password) < utils.MinPasswordLength {
		return jsonError(c, http.StatusBadRequest, "password is too short")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if _, err := h.Cities.GetByName(ctx, req.City); err != nil {
		if errors.Is(err, repository.ErrCityNotFound) {
			return jsonError(c, http.StatusBadRequest, "unknown city")
		}
		return serverError(c, "load city", err)
	}
	taken, err := h.Users.Taken(ctx, req.Username, req.Email)
	if err != nil {
		return serverError(c, "check user", err)
	}
	if taken {
		return jsonError(c, http.StatusConflict, repository.ErrUserExists.Error())
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return serverError(c, "hash password", err)
	}
	u := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		City:         &req.City,
		Role:         model.RoleUser,
	}
	if err := h.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return jsonError(c, http.StatusConflict, err.Error())
		}
		return serverError(c, "create user", err)
	}
	logger.InfoContext(ctx, "user registered", "user_id", u.ID, "city", req.City)

	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return serverError(c, "issue tokens", err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login checks credentials of an active account and returns a token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return jsonError(c, http.StatusBadRequest, "username and password are required")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return jsonError(c, http.StatusUnauthorized, "invalid credentials")
		}
		return serverError(c, "load user", err)
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return jsonError(c, http.StatusUnauthorized, "invalid credentials")
	}

	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return serverError(c, "issue tokens", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh rotates a refresh token: the old one is revoked and a new pair is
// issued with the account's current role and city.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return jsonError(c, http.StatusBadRequest, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := dbContext(c)
	defer cancel()

	uid, err := h.Sessions.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, session.ErrTokenNotFound) {
			return jsonError(c, http.StatusUnauthorized, "invalid refresh")
		}
		return serverError(c, "validate refresh", err)
	}
	if err := h.Sessions.RevokeRefresh(ctx, hash); err != nil {
		return serverError(c, "revoke refresh", err)
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return jsonError(c, http.StatusUnauthorized, "invalid refresh")
		}
		return serverError(c, "load user", err)
	}
	if !u.IsActive {
		return jsonError(c, http.StatusUnauthorized, "account disabled")
	}
	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return serverError(c, "issue tokens", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the presented access token and, when given, the refresh
// token of the same session.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)

	ctx, cancel := dbContext(c)
	defer cancel()

	if claims := middleware.ClaimsFrom(c); claims != nil && claims.ExpiresAt != nil {
		if err := h.Sessions.RevokeAccess(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			return serverError(c, "logout", err)
		}
	}
	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		if err := h.Sessions.RevokeRefresh(ctx, utils.HashRefreshRaw(raw)); err != nil {
			return serverError(c, "logout", err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) issuePair(ctx context.Context, u *model.User) (authResp, error) {
	access, err := accessToken(h.Cfg, u)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Sessions.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}

func accessToken(cfg config.Config, u *model.User) (utils.AccessToken, error) {
	return utils.NewAccessToken(cfg.JWTSecret, utils.Subject{
		UserID:   u.ID,
		Username: u.Username,
		Role:     string(u.Role),
		City:     u.CityName(),
	}, cfg.AccessTTLMin)
}
