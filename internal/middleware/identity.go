package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/green-city-platform/internal/model"
)

const (
	identityKey = "identity"
	claimsKey   = "claims"
)

// IdentityFrom returns the caller set by JWTAuth or OptionalAuth. Anonymous
// requests get the zero Identity.
func IdentityFrom(c echo.Context) model.Identity {
	if id, ok := c.Get(identityKey).(model.Identity); ok {
		return id
	}
	return model.Identity{}
}

// SetIdentity stores the caller on the context.
func SetIdentity(c echo.Context, id model.Identity) {
	c.Set(identityKey, id)
	c.Set("user_id", strconv.FormatUint(id.UserID, 10))
	c.Set("role", string(id.Role))
}

// userID is the rate-limit and log key for the caller.
func userID(c echo.Context) string {
	if id := IdentityFrom(c); id.Authenticated() {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "anon"
}
