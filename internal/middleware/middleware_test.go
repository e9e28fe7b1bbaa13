package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/green-city-platform/internal/config"
	"github.com/iliyamo/green-city-platform/internal/model"
	"github.com/iliyamo/green-city-platform/internal/session"
	"github.com/iliyamo/green-city-platform/internal/utils"
)

const testSecret = "test-secret"

func issue(t *testing.T, s utils.Subject) utils.AccessToken {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, s, 15)
	require.NoError(t, err)
	return tok
}

func serve(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func echoIdentity(c echo.Context) error {
	id := IdentityFrom(c)
	return c.JSON(http.StatusOK, echo.Map{"user_id": id.UserID, "role": id.Role, "city": id.City})
}

func TestJWTAuth(t *testing.T) {
	store := session.NewMemoryStore()
	e := echo.New()
	e.GET("/x", echoIdentity, JWTAuth(testSecret, store))

	t.Run("MissingToken", func(t *testing.T) {
		rec := serve(e, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("BadSignature", func(t *testing.T) {
		tok, err := utils.NewAccessToken("other", utils.Subject{UserID: 1, Role: "user"}, 15)
		require.NoError(t, err)
		rec := serve(e, tok.Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		rec := serve(e, issue(t, utils.Subject{UserID: 1, Role: "owner"}).Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Success", func(t *testing.T) {
		rec := serve(e, issue(t, utils.Subject{UserID: 3, Username: "admin", Role: "admin", City: "Барнаул"}).Token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"user_id":3,"role":"admin","city":"Барнаул"}`, rec.Body.String())
	})

	t.Run("Revoked", func(t *testing.T) {
		tok := issue(t, utils.Subject{UserID: 4, Role: "user"})
		require.NoError(t, store.RevokeAccess(context.Background(), tok.ID, tok.Exp))
		rec := serve(e, tok.Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	e := echo.New()
	e.GET("/x", echoIdentity, OptionalAuth(testSecret, nil))

	rec := serve(e, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":0,"role":"","city":""}`, rec.Body.String())

	rec = serve(e, "garbage")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":0,"role":"","city":""}`, rec.Body.String())

	rec = serve(e, issue(t, utils.Subject{UserID: 2, Role: "user", City: "Кемерово"}).Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":2,"role":"user","city":"Кемерово"}`, rec.Body.String())
}

func TestRoleGuards(t *testing.T) {
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e := echo.New()
	auth := JWTAuth(testSecret, nil)
	e.GET("/admin", ok, auth, RequireAtLeast(model.RoleAdmin))
	e.GET("/creator", ok, auth, RequireRole(model.RoleCreator))

	call := func(path, role string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+issue(t, utils.Subject{UserID: 1, Role: role}).Token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, call("/admin", "user"))
	assert.Equal(t, http.StatusNoContent, call("/admin", "admin"))
	assert.Equal(t, http.StatusNoContent, call("/admin", "creator"))
	assert.Equal(t, http.StatusForbidden, call("/creator", "admin"))
	assert.Equal(t, http.StatusNoContent, call("/creator", "creator"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"success":true}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"success":true}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}

func TestCacheKey(t *testing.T) {
	e := echo.New()
	key := func(strategy, target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/v1/api/city_coordinates/:city")
		return cacheKey(config.CacheConfig{Prefix: "greencity:cache", KeyStrategy: strategy}, c)
	}

	for _, strategy := range []string{"route_query", "method_route_query", "route", "method_route", ""} {
		t.Run("Strategy_"+strategy, func(t *testing.T) {
			a := key(strategy, "/v1/api/city_coordinates/Kovdor")
			assert.NotEqual(t, a, key(strategy, "/v1/api/city_coordinates/Kirovsk"))
			assert.NotEqual(t, key(strategy, "/v1/api/geocode?address=a"), key(strategy, "/v1/api/geocode?address=b"))
			assert.Equal(t, a, key(strategy, "/v1/api/city_coordinates/Kovdor"))
		})
	}
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/auth/login")

	cfg := config.RateLimitConfig{Prefix: "greencity:rl", KeyStrategy: "ip_route"}
	assert.Equal(t, "greencity:rl:ip:10.0.0.1:route:POST /v1/auth/login", rateKey(cfg, c))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "greencity:rl:user:anon", rateKey(cfg, c))

	SetIdentity(c, model.Identity{UserID: 5, Role: model.RoleUser})
	assert.Equal(t, "greencity:rl:user:5", rateKey(cfg, c))
}

func TestDisabledMiddlewaresPassThrough(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil),
		NewRedisCache(config.CacheConfig{Enabled: true, TTL: time.Minute}, nil),
	)
	rec := serve(e, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
