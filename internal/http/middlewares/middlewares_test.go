package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/storehub/internal/actorctx"
	"github.com/geocoder89/storehub/internal/apperr"
	"github.com/geocoder89/storehub/internal/auth"
	"github.com/geocoder89/storehub/internal/domain/user"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	u   user.User
	err error
}

func (f fakeResolver) Resolve(_ context.Context, _ string) (user.User, error) {
	return f.u, f.err
}

type countingMetrics struct{ scopes []string }

func (m *countingMetrics) ObserveRateLimited(scope string) { m.scopes = append(m.scopes, scope) }

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error
}

func TestRequireAuth(t *testing.T) {
	cases := []struct {
		name     string
		resolver fakeResolver
		status   int
		msg      string
	}{
		{"missing", fakeResolver{err: auth.ErrMissingToken}, http.StatusUnauthorized, apperr.MsgTokenRequired},
		{"invalid", fakeResolver{err: errors.Join(auth.ErrInvalidToken, errors.New("expired"))}, http.StatusUnauthorized, apperr.MsgTokenInvalid},
		{"inactive", fakeResolver{err: auth.ErrInactiveUser}, http.StatusUnauthorized, apperr.MsgUserInactive},
		{"store down", fakeResolver{err: apperr.ErrStoreUnavailable}, http.StatusServiceUnavailable, apperr.MsgStoreUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/p", NewAuthMiddleware(tc.resolver).RequireAuth(), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := serve(r, httptest.NewRequest(http.MethodGet, "/p", nil))
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.msg, errorMessage(t, w))
		})
	}
}

func TestRequireAuth_StoresActor(t *testing.T) {
	resolver := fakeResolver{u: user.User{ID: 7, Role: user.RoleUser, Status: user.StatusActive}}

	r := gin.New()
	r.GET("/p", NewAuthMiddleware(resolver).RequireAuth(), func(c *gin.Context) {
		id, ok := actorctx.UserIDFrom(c.Request.Context())
		assert.True(t, ok)
		assert.Equal(t, int64(7), id)
		assert.Equal(t, int64(7), c.GetInt64(CtxUserID))
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/p", nil)).Code)
}

func TestRequireAdmin(t *testing.T) {
	for _, tc := range []struct {
		role   user.Role
		status int
	}{
		{user.RoleUser, http.StatusForbidden},
		{user.RoleAdmin, http.StatusOK},
	} {
		resolver := fakeResolver{u: user.User{ID: 1, Role: tc.role, Status: user.StatusActive}}

		r := gin.New()
		r.GET("/admin", NewAuthMiddleware(resolver).RequireAuth(), RequireAdmin(), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := serve(r, httptest.NewRequest(http.MethodGet, "/admin", nil))
		assert.Equal(t, tc.status, w.Code, tc.role)
		if tc.status == http.StatusForbidden {
			assert.Equal(t, apperr.MsgAdminRequired, errorMessage(t, w))
		}
	}
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		ok, _, err := rl.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, retry, _ := rl.Allow(ctx, "ip")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	ok, _, _ = rl.Allow(ctx, "other")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Minute + time.Second)
	ok, _, _ = rl.Allow(ctx, "ip")
	assert.True(t, ok, "a new window starts after expiry")
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 0, errors.New("redis down")
}

func TestRateLimit_Middleware(t *testing.T) {
	metrics := &countingMetrics{}

	r := gin.New()
	r.POST("/login", RateLimit(NewRateLimiter(1, time.Minute), "auth", KeyByIP, metrics), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodPost, "/login", nil)).Code)

	w := serve(r, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, apperr.MsgTooManyRequests, errorMessage(t, w))
	assert.Equal(t, []string{"auth"}, metrics.scopes)

	open := gin.New()
	open.POST("/login", RateLimit(brokenLimiter{}, "auth", KeyByIP, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, serve(open, httptest.NewRequest(http.MethodPost, "/login", nil)).Code,
		"limiter failures let traffic through")
}

func TestRequireJSON(t *testing.T) {
	r := gin.New()
	r.Use(RequireJSON())
	r.Any("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "text/plain")
	w := serve(r, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Equal(t, apperr.MsgUnsupportedMedia, errorMessage(t, w))

	req = httptest.NewRequest(http.MethodPut, "/x", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodDelete, "/x", nil)).Code)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://app.test"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://app.test")
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://app.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxRequestID))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", 200))
	w = serve(r, req)
	assert.Len(t, w.Header().Get(requestIDHeader), 36, "oversized ids are replaced")
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(true))
	r.GET("/docs", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, defaultCSP, w.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Equal(t, docsCSP, w.Header().Get("Content-Security-Policy"))
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/x", func(c *gin.Context) {
		var v map[string]any
		if err := c.ShouldBindJSON(&v); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":"far too long"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}
