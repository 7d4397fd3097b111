package openai

import (
	"context"
	"encoding/json"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joseph-ayodele/wz-splitter/internal/llm"
)

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"content": content}}},
	})
	return string(b)
}

func newTestClient(t *testing.T, content string, strict bool, seen *string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		if seen != nil {
			b, _ := io.ReadAll(r.Body)
			*seen = string(b)
		}
		_, _ = io.WriteString(w, chatResponse(content))
	}))
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL, StrictValidation: strict}, nil)
}

func TestJudgePageValidVerdict(t *testing.T) {
	var body string
	c := newTestClient(t, `{"label":"DOCUMENT_START","confidence":0.92,"identifier":"WZ-1/2024/AB/7"}`, true, &body)
	v, _, err := c.JudgePage(context.Background(), llm.JudgeRequest{Image: image.NewGray(image.Rect(0, 0, 8, 8))})
	if err != nil {
		t.Fatalf("JudgePage: %v", err)
	}
	if v.Label != "DOCUMENT_START" || v.Identifier != "WZ-1/2024/AB/7" || v.Confidence < 0.9 {
		t.Fatalf("verdict = %+v", v)
	}
	if !strings.Contains(body, "data:image/jpeg;base64,") {
		t.Fatal("request did not carry the page image")
	}
}

func TestJudgePageLenientRepair(t *testing.T) {
	c := newTestClient(t, `{"label":"wz","confidence":"87%","page_type":"header"}`, false, nil)
	v, _, err := c.JudgePage(context.Background(), llm.JudgeRequest{Image: image.NewGray(image.Rect(0, 0, 4, 4))})
	if err != nil {
		t.Fatalf("JudgePage: %v", err)
	}
	if v.Label != "DOCUMENT_START" || v.Confidence < 0.86 || v.Confidence > 0.88 {
		t.Fatalf("verdict = %+v", v)
	}
}

func TestJudgePageStrictRejects(t *testing.T) {
	c := newTestClient(t, `{"label":"maybe","confidence":2}`, true, nil)
	if _, _, err := c.JudgePage(context.Background(), llm.JudgeRequest{Image: image.NewGray(image.Rect(0, 0, 4, 4))}); err == nil {
		t.Fatal("expected schema validation error")
	}
}
