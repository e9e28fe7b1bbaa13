package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/green-city-platform/internal/logger"
	"github.com/iliyamo/green-city-platform/internal/model"
	"github.com/iliyamo/green-city-platform/internal/session"
	"github.com/iliyamo/green-city-platform/internal/utils"
)

// JWTAuth requires a valid, unrevoked Bearer access token and stores the
// caller's Identity in the context.
func JWTAuth(secret string, store session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			id, claims, err := authenticate(c, secret, store, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
			}
			SetIdentity(c, id)
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// OptionalAuth is JWTAuth for public routes: a missing or bad token leaves
// the request anonymous instead of rejecting it.
func OptionalAuth(secret string, store session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw, ok := bearer(c); ok {
				if id, claims, err := authenticate(c, secret, store, raw); err == nil {
					SetIdentity(c, id)
					c.Set(claimsKey, claims)
				}
			}
			return next(c)
		}
	}
}

// ClaimsFrom returns the parsed access token of an authenticated request.
func ClaimsFrom(c echo.Context) *utils.Claims {
	cl, _ := c.Get(claimsKey).(*utils.Claims)
	return cl
}

func bearer(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}

type authError string

func (e authError) Error() string { return string(e) }

const (
	errInvalidToken authError = "invalid token"
	errRevoked      authError = "token revoked"
)

func authenticate(c echo.Context, secret string, store session.Store, raw string) (model.Identity, *utils.Claims, error) {
	claims, err := utils.ParseAccessToken(secret, raw)
	if err != nil {
		return model.Identity{}, nil, errInvalidToken
	}
	uid, err := claims.UserID()
	if err != nil {
		return model.Identity{}, nil, errInvalidToken
	}
	role, err := model.ParseRole(claims.Role)
	if err != nil {
		return model.Identity{}, nil, errInvalidToken
	}
	if store != nil {
		var issued time.Time
		if claims.IssuedAt != nil {
			issued = claims.IssuedAt.Time
		}
		revoked, err := store.AccessRevoked(c.Request().Context(), claims.ID, uid, issued)
		if err != nil {
			// fail open while the session backend is down
			logger.WarnContext(c.Request().Context(), "revocation check failed", "error", err, "user_id", uid)
		} else if revoked {
			return model.Identity{}, nil, errRevoked
		}
	}
	return model.Identity{UserID: uid, Username: claims.Username, Role: role, City: claims.City}, claims, nil
}
