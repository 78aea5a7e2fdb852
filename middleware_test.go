package relay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func okRouter() Router {
	return RouterFunc(func(r *http.Request) *Response {
		return NewResponse(http.StatusOK, []byte("ok"))
	})
}

func TestMiddlewareFuncSatisfiesMiddleware(t *testing.T) {
	var m Middleware = MiddlewareFunc(func(r *http.Request, ext *Extensions, next *Next) *Response {
		return NoContent()
	})
	res := New(okRouter()).With(m).Run(httptest.NewRequest(http.MethodGet, "/", nil))
	if res.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", res.StatusCode)
	}
}

func TestRequestIDGenerated(t *testing.T) {
	var fromExt RequestIDValue
	var fromHeader string
	router := RouterFunc(func(r *http.Request) *Response {
		fromHeader = r.Header.Get(RequestIDHeader)
		return NewResponse(http.StatusOK, nil)
	})
	capture := MiddlewareFunc(func(r *http.Request, ext *Extensions, next *Next) *Response {
		fromExt, _ = Get[RequestIDValue](ext)
		return next.Run(r, ext)
	})

	res := New(router).With(RequestID()).With(capture).Run(httptest.NewRequest(http.MethodGet, "/", nil))

	id := res.Header.Get(RequestIDHeader)
	if len(id) != 36 {
		t.Fatalf("expected a UUID request ID, got %q", id)
	}
	if string(fromExt) != id || fromHeader != id {
		t.Errorf("expected %q everywhere, got ext=%q header=%q", id, fromExt, fromHeader)
	}
}

func TestRequestIDReused(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "given-id")

	res := New(okRouter()).With(RequestID()).Run(req)

	if got := res.Header.Get(RequestIDHeader); got != "given-id" {
		t.Errorf("expected incoming ID to be reused, got %q", got)
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	router := RouterFunc(func(r *http.Request) *Response {
		panic("boom")
	})

	res := New(router).With(Recover(logger)).Run(httptest.NewRequest(http.MethodGet, "/explode", nil))

	if res.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", res.StatusCode)
	}
	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("expected panic to be logged, got %s", buf.String())
	}
}

func TestRateLimit(t *testing.T) {
	chain := New(okRouter()).With(RateLimit(1, 2)).Build()

	for i := 0; i < 2; i++ {
		res := chain.Run(httptest.NewRequest(http.MethodGet, "/", nil))
		if res.StatusCode != http.StatusOK {
			t.Fatalf("request %d should pass, got %d", i, res.StatusCode)
		}
	}

	res := chain.Run(httptest.NewRequest(http.MethodGet, "/", nil))
	if res.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", res.StatusCode)
	}
	if got := res.Header.Get("Retry-After"); got != "1" {
		t.Errorf("expected Retry-After 1, got %q", got)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("debug", &buf)

	router := RouterFunc(func(r *http.Request) *Response {
		if r.URL.Path == "/missing" {
			return Error(http.StatusNotFound, "not found")
		}
		return NewResponse(http.StatusOK, nil)
	})
	chain := New(router).With(RequestID()).With(Logger(logger)).Build()

	chain.Run(httptest.NewRequest(http.MethodGet, "/things", nil))
	chain.Run(httptest.NewRequest(http.MethodGet, "/missing", nil))
	chain.Run(httptest.NewRequest(http.MethodGet, "/health", nil))

	var entries []map[string]any
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, entry)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries (health skipped), got %d", len(entries))
	}

	tests := []struct {
		path   string
		level  string
		status float64
	}{
		{"/things", "debug", 200},
		{"/missing", "warn", 404},
	}
	for i, tt := range tests {
		e := entries[i]
		if e["path"] != tt.path || e["level"] != tt.level || e["status"] != tt.status {
			t.Errorf("entry %d: expected %s/%s/%v, got %v", i, tt.path, tt.level, tt.status, e)
		}
		if id, _ := e["request_id"].(string); id == "" {
			t.Errorf("entry %d: expected request_id", i)
		}
	}
}

func TestLoggerStoresTiming(t *testing.T) {
	var timing Timing
	var found bool
	capture := MiddlewareFunc(func(r *http.Request, ext *Extensions, next *Next) *Response {
		timing, found = Get[Timing](ext)
		return next.Run(r, ext)
	})

	New(okRouter()).With(Logger(zerolog.Nop())).With(capture).
		Run(httptest.NewRequest(http.MethodGet, "/", nil))

	if !found || timing.Start.IsZero() {
		t.Error("expected Timing in extensions")
	}
	if timing.Elapsed() < 0 {
		t.Error("expected non-negative elapsed time")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	if got := NewLogger("warn", &bytes.Buffer{}).GetLevel(); got != zerolog.WarnLevel {
		t.Errorf("expected warn, got %s", got)
	}
	if got := NewLogger("nonsense", &bytes.Buffer{}).GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("expected info fallback, got %s", got)
	}
	if got := NewLogger("", &bytes.Buffer{}).GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("expected info for empty level, got %s", got)
	}
}

func TestMetrics(t *testing.T) {
	metrics := NewMetrics("test")
	router := RouterFunc(func(r *http.Request) *Response {
		if r.Method == http.MethodPost {
			return Error(http.StatusBadRequest, "bad")
		}
		return NewResponse(http.StatusOK, nil)
	})
	chain := New(router).With(metrics.Middleware()).Build()

	chain.Run(httptest.NewRequest(http.MethodGet, "/", nil))
	chain.Run(httptest.NewRequest(http.MethodGet, "/", nil))
	chain.Run(httptest.NewRequest(http.MethodPost, "/", nil))

	if got := testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "200")); got != 2 {
		t.Errorf("expected 2 GET 200s, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.requests.WithLabelValues("POST", "400")); got != 1 {
		t.Errorf("expected 1 POST 400, got %v", got)
	}

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "test_requests_total") {
		t.Errorf("expected exposition to include test_requests_total")
	}
}

func TestHealthHandler(t *testing.T) {
	status := newHealthStatus()
	handler := status.Handler()

	check := func(path string, want int) {
		t.Helper()
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Errorf("%s: expected %d, got %d", path, want, rec.Code)
		}
	}

	check("/health", http.StatusServiceUnavailable)
	check("/ready", http.StatusServiceUnavailable)

	status.SetHealthy(true)
	status.SetReady(true)

	check("/health", http.StatusOK)
	check("/ready", http.StatusOK)
}
