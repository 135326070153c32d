package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/themobileprof/voicepilot/pkg/httputil"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(t *testing.T, handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/voice/intent", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(nil, 2, time.Minute)
	handler := rl.Limit(okHandler())

	for i := 0; i < 2; i++ {
		rec := doRequest(t, handler, "10.0.0.1:5000")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d blocked early: %d", i+1, rec.Code)
		}
	}

	rec := doRequest(t, handler, "10.0.0.1:5000")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 without Retry-After")
	}

	var resp httputil.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("429 body is not the envelope: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != "RATE_LIMITED" {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(nil, 1, time.Minute)
	handler := rl.Limit(okHandler())

	if rec := doRequest(t, handler, "10.0.0.1:5000"); rec.Code != http.StatusOK {
		t.Fatalf("first client blocked: %d", rec.Code)
	}
	if rec := doRequest(t, handler, "10.0.0.2:5000"); rec.Code != http.StatusOK {
		t.Errorf("second client shares the first client's window: %d", rec.Code)
	}
	if rec := doRequest(t, handler, "10.0.0.1:5000"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("first client not limited: %d", rec.Code)
	}
}

func TestRateLimiterWindowResets(t *testing.T) {
	rl := NewRateLimiter(nil, 1, 50*time.Millisecond)
	handler := rl.Limit(okHandler())

	if rec := doRequest(t, handler, "10.0.0.1:5000"); rec.Code != http.StatusOK {
		t.Fatalf("first request blocked: %d", rec.Code)
	}
	if rec := doRequest(t, handler, "10.0.0.1:5000"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request not limited: %d", rec.Code)
	}

	time.Sleep(80 * time.Millisecond)

	if rec := doRequest(t, handler, "10.0.0.1:5000"); rec.Code != http.StatusOK {
		t.Errorf("request after window still limited: %d", rec.Code)
	}
}

func TestRateLimiterExemptsProbes(t *testing.T) {
	rl := NewRateLimiter(nil, 1, time.Minute)
	handler := rl.Limit(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/health", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("health probe %d limited: %d", i+1, rec.Code)
		}
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(nil, 0, time.Minute)
	handler := rl.Limit(okHandler())

	for i := 0; i < 10; i++ {
		if rec := doRequest(t, handler, "10.0.0.1:5000"); rec.Code != http.StatusOK {
			t.Fatalf("request %d limited with limiting disabled: %d", i+1, rec.Code)
		}
	}
}
