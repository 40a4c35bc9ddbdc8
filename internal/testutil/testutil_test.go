package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

func echoHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Content-Type") != "application/json" && len(body) > 0 {
			t.Errorf("expected JSON content type")
		}
		var result json.RawMessage = body
		if len(body) == 0 {
			result = nil
		}
		w.WriteHeader(http.StatusTeapot)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ok",
			"result": result,
		})
	})
}

func TestDoRoundTrip(t *testing.T) {
	code, env := Do(t, echoHandler(t), http.MethodPost, "/x", map[string]string{"name": "frame"})
	AssertHTTPStatus(t, http.StatusTeapot, code, "Do")
	if env.Status != "ok" {
		t.Errorf("expected status ok, got %q", env.Status)
	}
	got := Result[map[string]string](t, env)
	if got["name"] != "frame" {
		t.Errorf("expected name frame, got %q", got["name"])
	}
}

func TestNewJSONRequestWithoutBody(t *testing.T) {
	req := NewJSONRequest(t, http.MethodGet, "/y", nil)
	if req.Header.Get("Content-Type") != "" {
		t.Errorf("expected no content type for empty body")
	}
	if req.ContentLength != 0 {
		t.Errorf("expected empty body, got length %d", req.ContentLength)
	}
}
