package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/labelhub/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDWithConfig(RequestIDConfig{Generator: func() string { return "generated" }}))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c.Request.Context()))
	})

	tests := []struct {
		name     string
		incoming string
		want     string
	}{
		{"generated when absent", "", "generated"},
		{"propagated when present", "client-id", "client-id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.incoming != "" {
				req.Header.Set(HeaderXRequestID, tt.incoming)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Body.String())
			assert.Equal(t, tt.want, w.Header().Get(HeaderXRequestID))
		})
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, errors.ErrInternal.Code, body["code"])
	assert.NotEmpty(t, body["request_id"])
}

func TestLogger_PassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(Logger())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, path := range []string{"/healthz", "/missing"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.NotEqual(t, http.StatusOK, w.Code)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg, "test")

	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/items/1", "/items/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inflight))

	n, err := testutil.GatherAndCount(reg, "test_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		mw         gin.HandlerFunc
		method     string
		origin     string
		wantCode   int
		wantOrigin string
	}{
		{"no origin header", CORS(), http.MethodGet, "", http.StatusOK, ""},
		{"wildcard", CORS(), http.MethodGet, "https://ui.example.com", http.StatusOK, "*"},
		{"listed origin", CORS("https://ui.example.com"), http.MethodGet, "https://ui.example.com", http.StatusOK, "https://ui.example.com"},
		{"unlisted origin", CORS("https://ui.example.com"), http.MethodGet, "https://evil.example.com", http.StatusOK, ""},
		{"preflight", CORS("https://ui.example.com"), http.MethodOptions, "https://ui.example.com", http.StatusNoContent, "https://ui.example.com"},
		{"credentials echo origin", CORSWithConfig(CORSConfig{AllowCredentials: true}), http.MethodGet, "https://ui.example.com", http.StatusOK, "https://ui.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(tt.mw)
			r.GET("/items", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/items", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.method == http.MethodOptions {
				assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
				assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(50*time.Millisecond, "/healthz"))
	deadline := func(c *gin.Context) {
		if _, ok := c.Request.Context().Deadline(); ok {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusNoContent)
	}
	r.GET("/items", deadline)
	r.GET("/healthz", deadline)
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
		resp := errors.FromError(c.Request.Context().Err())
		c.JSON(resp.HTTP, gin.H{"code": resp.Code})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))
	assert.Equal(t, http.StatusOK, w.Code, "deadline set")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNoContent, w.Code, "skipped path has no deadline")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil).WithContext(context.Background()))
	assert.Equal(t, http.StatusRequestTimeout, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, errors.ErrRequestTimeout.Code, body["code"])
}
