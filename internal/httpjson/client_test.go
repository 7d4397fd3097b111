package httpjson

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPostSendsJSONWithHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("missing request id header")
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		var in map[string]int
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in["x"] != 1 {
			t.Errorf("body = %v, err = %v", in, err)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(nil, http.Header{"Authorization": {"Bearer k"}}, nil)
	raw, err := c.Post(context.Background(), srv.URL, map[string]any{"x": 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"ok":true}` {
		t.Fatalf("raw = %s", raw)
	}
}

func TestPostNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"loading"}`))
	}))
	defer srv.Close()

	raw, err := New(nil, nil, nil).Post(context.Background(), srv.URL, map[string]any{"x": 1})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected StatusError 503, got %v", err)
	}
	if !strings.Contains(string(raw), "loading") || !strings.Contains(string(se.Body), "loading") {
		t.Fatalf("raw body not returned: %s", raw)
	}
}

func TestPostUnencodableBody(t *testing.T) {
	if _, err := New(nil, nil, nil).Post(context.Background(), "http://127.0.0.1:0", map[string]any{"c": make(chan int)}); err == nil || !strings.Contains(err.Error(), "encode request") {
		t.Fatalf("expected encode error, got %v", err)
	}
}
