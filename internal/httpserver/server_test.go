package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rfievet/betterMind/internal/config"
)

func TestServer_Healthz(t *testing.T) {
	srv := New(config.Config{})
	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestSignedURL_OK(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"signed_url":"wss://example/conv?token=t"}`))
	}))
	defer upstream.Close()

	srv := New(config.Config{
		ElevenLabsKey:     "key",
		ElevenLabsAgentID: "agent",
		ElevenLabsBaseURL: upstream.URL,
	})
	r := httptest.NewRequest(http.MethodGet, "/api/voice/signed-url", nil)
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var out map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["signed_url"] != "wss://example/conv?token=t" {
		t.Fatalf("unexpected signed_url %q", out["signed_url"])
	}
}

func TestSignedURL_UpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer upstream.Close()

	srv := New(config.Config{
		ElevenLabsKey:     "bad",
		ElevenLabsAgentID: "agent",
		ElevenLabsBaseURL: upstream.URL,
	})
	r := httptest.NewRequest(http.MethodGet, "/api/voice/signed-url", nil)
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, r)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestSignedURL_MissingCredentials(t *testing.T) {
	srv := New(config.Config{})
	r := httptest.NewRequest(http.MethodGet, "/api/voice/signed-url", nil)
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, r)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}
