package transport

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fernandofot/ecommerce-monitoring-app/pkg/api"
)

func TestChainAppliesMiddlewareInOrder(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+":before")
				next.ServeHTTP(w, r)
				order = append(order, name+":after")
			})
		}
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	chain := Chain(mw("first"), mw("second"), mw("third"))
	wrapped := chain(handler)

	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	expected := []string{
		"first:before", "second:before", "third:before",
		"handler",
		"third:after", "second:after", "first:after",
	}

	if len(order) != len(expected) {
		t.Fatalf("execution order length = %d, want %d: %v", len(order), len(expected), order)
	}
	for i, got := range order {
		if got != expected[i] {
			t.Errorf("order[%d] = %q, want %q", i, got, expected[i])
		}
	}
}

func TestRecoveryCatchesPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("credential store exploded")
	})

	wrapped := Recovery(logger)(handler)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest("GET", "/api/auth/profile", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusInternalServerError)
	}

	var resp api.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Type != api.ErrorTypeServerError {
		t.Errorf("error type = %q, want %q", resp.Error.Type, api.ErrorTypeServerError)
	}

	// The panic detail belongs in the log, never in the response body.
	if strings.Contains(resp.Error.Message, "credential store exploded") {
		t.Errorf("panic value leaked to client: %q", resp.Error.Message)
	}
	if !strings.Contains(buf.String(), "credential store exploded") {
		t.Errorf("panic value missing from log output:\n%s", buf.String())
	}
}

func TestRecoveryPassesThroughNormalExecution(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	wrapped := Recovery(nil)(handler)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestRequestIDGeneratesNewID(t *testing.T) {
	var capturedID string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = RequestIDFromContext(r.Context())
	})

	wrapped := RequestID()(handler)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if capturedID == "" {
		t.Error("expected a generated request ID, got empty string")
	}
	if len(capturedID) != 32 { // 16 bytes = 32 hex chars
		t.Errorf("request ID length = %d, want 32 (hex encoded)", len(capturedID))
	}
	if got := rec.Header().Get("X-Request-ID"); got != capturedID {
		t.Errorf("X-Request-ID header = %q, want %q", got, capturedID)
	}
}

func TestRequestIDPropagatesExisting(t *testing.T) {
	var capturedID string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = RequestIDFromContext(r.Context())
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "existing-id-123")

	wrapped := RequestID()(handler)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if capturedID != "existing-id-123" {
		t.Errorf("request ID = %q, want %q", capturedID, "existing-id-123")
	}
	if got := rec.Header().Get("X-Request-ID"); got != "existing-id-123" {
		t.Errorf("X-Request-ID header = %q, want %q", got, "existing-id-123")
	}
}

func TestRequestIDUniqueness(t *testing.T) {
	ids := make(map[string]bool)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids[RequestIDFromContext(r.Context())] = true
	})

	wrapped := RequestID()(handler)
	for i := 0; i < 100; i++ {
		wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	}

	if len(ids) != 100 {
		t.Errorf("expected 100 unique IDs, got %d", len(ids))
	}
}

func TestLoggingEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest("POST", "/api/auth/register", nil)
	req = req.WithContext(ContextWithRequestID(req.Context(), "req-log-test"))

	wrapped := Logging(logger)(handler)
	wrapped.ServeHTTP(httptest.NewRecorder(), req)

	output := buf.String()
	for _, expected := range []string{"request_id=req-log-test", "method=POST", "path=/api/auth/register", "status=201", "request completed"} {
		if !strings.Contains(output, expected) {
			t.Errorf("log output missing %q in:\n%s", expected, output)
		}
	}
}

func TestLoggingEmitsErrorOnServerFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	wrapped := Logging(logger)(handler)
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/auth/login", nil))

	output := buf.String()
	if !strings.Contains(output, "request failed") {
		t.Errorf("log output missing 'request failed' in:\n%s", output)
	}
	if !strings.Contains(output, "status=500") {
		t.Errorf("log output missing status in:\n%s", output)
	}
}

func TestLoggingDefaultStatusIsOK(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Handler writes a body without an explicit WriteHeader call.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	wrapped := Logging(logger)(handler)
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	if !strings.Contains(buf.String(), "status=200") {
		t.Errorf("log output missing implicit 200 status in:\n%s", buf.String())
	}
}
