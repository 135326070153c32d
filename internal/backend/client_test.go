package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/themobileprof/voicepilot/pkg/models"
)

func TestResolveIntentSuccess(t *testing.T) {
	var gotPath string
	var gotReq models.IntentRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": models.IntentResponse{
				Intent:       models.IntentSignup,
				ResponseText: "Let's get you signed up.",
				Action: &models.VoiceAction{
					Type:   models.ActionNavigate,
					Target: "/login",
				},
				Confidence: 0.9,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil)
	resp, err := client.ResolveIntent(context.Background(), &models.IntentRequest{
		Utterance:    "create account",
		CurrentRoute: "/",
		Memory:       models.DefaultMemory(),
	})
	if err != nil {
		t.Fatalf("ResolveIntent: %v", err)
	}

	if gotPath != "/api/voice/intent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotReq.Utterance != "create account" {
		t.Errorf("posted utterance = %q", gotReq.Utterance)
	}
	if resp.Intent != models.IntentSignup {
		t.Errorf("intent = %q", resp.Intent)
	}
	if resp.Action == nil || resp.Action.Target != "/login" {
		t.Errorf("action = %+v", resp.Action)
	}
}

func TestResolveIntentServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil)
	if _, err := client.ResolveIntent(context.Background(), &models.IntentRequest{Utterance: "hi"}); err == nil {
		t.Error("expected an error for a 500 response")
	}
}

func TestResolveIntentRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   map[string]string{"code": "BAD_REQUEST", "message": "utterance required"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil)
	_, err := client.ResolveIntent(context.Background(), &models.IntentRequest{})
	if err == nil {
		t.Fatal("expected an error for a rejected request")
	}
}

func TestResolveIntentMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil)
	if _, err := client.ResolveIntent(context.Background(), &models.IntentRequest{Utterance: "hi"}); err == nil {
		t.Error("expected an error for a malformed body")
	}
}

func TestResolveIntentUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, time.Second, nil)
	if _, err := client.ResolveIntent(context.Background(), &models.IntentRequest{Utterance: "hi"}); err == nil {
		t.Error("expected an error when the service is down")
	}
}

func TestResolveIntentTimeout(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		server.Close()
	}()

	client := NewClient(server.URL, 50*time.Millisecond, nil)
	start := time.Now()
	_, err := client.ResolveIntent(context.Background(), &models.IntentRequest{Utterance: "hi"})
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took too long: %v", elapsed)
	}
}

func TestResolveIntentContextCancel(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		server.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	client := NewClient(server.URL, 10*time.Second, nil)
	if _, err := client.ResolveIntent(ctx, &models.IntentRequest{Utterance: "hi"}); err == nil {
		t.Error("expected an error after context cancellation")
	}
}
