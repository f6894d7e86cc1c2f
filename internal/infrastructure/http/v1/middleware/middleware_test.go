package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/core/apperror"
	appctx "orderdesk/internal/core/context"
	"orderdesk/internal/core/security"
	"orderdesk/internal/domain/visibility"
	"orderdesk/internal/infrastructure/http/v1/middleware"
	"orderdesk/internal/infrastructure/storage/postgres"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Trace(), middleware.ErrorHandler())
	r.Use(mw...)
	return r
}

func serve(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestErrorHandler_RendersAppError(t *testing.T) {
	r := newEngine()
	r.GET("/x", func(c *gin.Context) {
		_ = c.Error(apperror.NewNotFound("order", "42"))
	})

	w, body := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, body["code"])
	assert.Equal(t, "order", body["details"].(map[string]any)["entity"])
}

func TestErrorHandler_HidesUnknownErrors(t *testing.T) {
	r := newEngine()
	r.GET("/x", func(c *gin.Context) {
		_ = c.Error(errors.New("connection refused to 10.0.0.7"))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(middleware.HeaderRequestID, "req-1")
	w, body := serve(r, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, body["code"])
	assert.NotContains(t, w.Body.String(), "10.0.0.7")
	assert.Equal(t, "req-1", body["details"].(map[string]any)["request_id"])
}

func TestRecovery(t *testing.T) {
	r := newEngine()
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w, body := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, body["code"])
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestTrace_PropagatesRequestID(t *testing.T) {
	r := newEngine()
	var seen string
	r.GET("/x", func(c *gin.Context) {
		seen = appctx.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(middleware.HeaderRequestID, "abc")
	w, _ := serve(r, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", w.Header().Get(middleware.HeaderRequestID))

	w, _ = serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
}

type validatorFunc func(string) (*appctx.Viewer, error)

func (f validatorFunc) ValidateToken(token string) (*appctx.Viewer, error) { return f(token) }

func TestAuth(t *testing.T) {
	v := validatorFunc(func(token string) (*appctx.Viewer, error) {
		if token == "good" {
			return &appctx.Viewer{UserID: "u1", Identity: "ana@example.com"}, nil
		}
		return nil, errors.New("bad signature")
	})
	r := newEngine(middleware.Auth(v))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, appctx.GetUserID(c.Request.Context()))
	})

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"good", http.StatusUnauthorized},
		{"Basic good", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"Bearer good", http.StatusOK},
		{"bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w, _ := serve(r, req)
		assert.Equal(t, tc.status, w.Code, tc.header)
		if tc.status == http.StatusOK {
			assert.Equal(t, "u1", w.Body.String())
		}
	}
}

func TestRequireCapability(t *testing.T) {
	policy, err := visibility.NewPolicy(visibility.DefaultRules(), visibility.Overrides{
		"revoked@example.com": {Revoke: []security.Capability{security.CapFinance}},
	})
	require.NoError(t, err)

	withViewer := func(v *appctx.Viewer) gin.HandlerFunc {
		return func(c *gin.Context) {
			if v != nil {
				c.Request = c.Request.WithContext(appctx.WithViewer(c.Request.Context(), v))
			}
		}
	}

	cases := []struct {
		name   string
		viewer *appctx.Viewer
		status int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"no caps", &appctx.Viewer{Identity: "a@example.com"}, http.StatusForbidden},
		{"finance", &appctx.Viewer{Identity: "b@example.com", Capabilities: []string{"finance"}}, http.StatusOK},
		{"revoked finance", &appctx.Viewer{Identity: "Revoked@example.com", Capabilities: []string{"finance"}}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newEngine(withViewer(tc.viewer), middleware.RequireCapability(policy, security.CapAdmin, security.CapFinance))
			r.GET("/r", func(c *gin.Context) { c.Status(http.StatusOK) })
			w, _ := serve(r, httptest.NewRequest(http.MethodGet, "/r", nil))
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

type memIdempotency struct {
	mu        sync.Mutex
	hashes    map[string]string
	completed map[string]*postgres.IdempotencyReplay
	released  []string
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{hashes: map[string]string{}, completed: map[string]*postgres.IdempotencyReplay{}}
}

func (m *memIdempotency) AcquireKey(_ context.Context, key, _, _, hash string) (*postgres.IdempotencyReplay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.hashes[key]; ok {
		if prev != hash {
			return nil, apperror.NewConflict("idempotency key reused with a different request")
		}
		if r, ok := m.completed[key]; ok {
			return r, nil
		}
		return nil, apperror.NewConflict("request in progress")
	}
	m.hashes[key] = hash
	return nil, nil
}

func (m *memIdempotency) CompleteKey(_ context.Context, key string, status int, contentType string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed[key] = &postgres.IdempotencyReplay{StatusCode: status, ContentType: contentType, Body: append([]byte(nil), body...)}
	return nil
}

func (m *memIdempotency) ReleaseKey(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hashes, key)
	m.released = append(m.released, key)
	return nil
}

func TestIdempotency_ReplaysCompletedResponse(t *testing.T) {
	store := newMemIdempotency()
	calls := 0
	r := newEngine(middleware.Idempotency(store))
	r.POST("/pay", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"call": calls})
	})

	post := func(key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/pay", strings.NewReader(body))
		req.Header.Set(middleware.HeaderIdempotencyKey, key)
		w, _ := serve(r, req)
		return w
	}

	first := post("k1", `{"amount":"40"}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := post("k1", `{"amount":"40"}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 1, calls)

	conflict := post("k1", `{"amount":"41"}`)
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotency_ReleasesKeyOnError(t *testing.T) {
	store := newMemIdempotency()
	calls := 0
	r := newEngine(middleware.Idempotency(store))
	r.POST("/pay", func(c *gin.Context) {
		calls++
		if calls == 1 {
			_ = c.Error(apperror.NewValidation("amount must be greater than zero"))
			c.Abort()
			return
		}
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/pay", strings.NewReader(`{}`))
		req.Header.Set(middleware.HeaderIdempotencyKey, "k2")
		serve(r, req)
	}

	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"k2"}, store.released)
	assert.Contains(t, store.completed, "k2")
}

func TestIdempotency_PassThroughWithoutKey(t *testing.T) {
	store := newMemIdempotency()
	calls := 0
	r := newEngine(middleware.Idempotency(store))
	r.POST("/pay", func(c *gin.Context) {
		calls++
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		serve(r, httptest.NewRequest(http.MethodPost, "/pay", strings.NewReader(`{}`)))
	}
	assert.Equal(t, 2, calls)
	assert.Empty(t, store.hashes)
}
