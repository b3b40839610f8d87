package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
})

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders()(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
}

func TestRequestSizeLimiter(t *testing.T) {
	handler := RequestSizeLimiter(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, "too large", http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("this body is too large")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	handler := rl.Middleware()(okHandler)

	request := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, request("10.0.0.1:1111"))
	assert.Equal(t, http.StatusOK, request("10.0.0.1:2222"))
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1:3333"), "ports share the host's budget")
	assert.Equal(t, http.StatusOK, request("10.0.0.2:1111"))
	assert.Equal(t, 2, rl.Len())
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	rl := NewRateLimiterWithExpiry(1, 1, 50*time.Millisecond)
	require.True(t, rl.Allow("a"))
	require.False(t, rl.Allow("a"))

	time.Sleep(80 * time.Millisecond)
	assert.True(t, rl.Allow("a"), "an expired limiter starts over with a full bucket")
}

func TestRateLimiterConcurrent(t *testing.T) {
	rl := NewRateLimiter(1000, 1000)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rl.Allow("shared")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, rl.Len())
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name      string
		remote    string
		forwarded string
		want      string
	}{
		{"remote host without port", "192.168.1.5:4000", "", "192.168.1.5"},
		{"first forwarded entry", "10.0.0.1:80", "203.0.113.7, 10.0.0.1", "203.0.113.7"},
		{"unparseable remote", "pipe", "", "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, ClientKey(req))
		})
	}
}

func TestConnectionLimiter(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	blocking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		w.WriteHeader(http.StatusOK)
	})
	handler := ConnectionLimiter(1)(blocking)

	done := make(chan int)
	go func() {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		done <- rec.Code
	}()
	<-entered

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := RequestLogger(zap.New(core))(okHandler)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/health/live", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}
