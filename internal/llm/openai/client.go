package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/wz-splitter/internal/common"
	"github.com/joseph-ayodele/wz-splitter/internal/httpjson"
	"github.com/joseph-ayodele/wz-splitter/internal/llm"
)

// JudgePage implements llm.PageJudge with a vision chat/completions call on the page header.
func (c *Client) JudgePage(ctx context.Context, req llm.JudgeRequest) (llm.PageVerdict, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Debug("llm.judge.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"page", req.PageIndex,
		"source", req.Source,
	)

	dataURL, err := llm.ImageDataURL(req.Image)
	if err != nil {
		return llm.PageVerdict{}, nil, fmt.Errorf("encode page image: %w", err)
	}

	schema := llm.BuildVerdictJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": "Classify this page. Return ONLY JSON that matches the provided schema."},
				{"type": "image_url", "image_url": map[string]any{"url": dataURL, "detail": "low"}},
			}},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, httpErr := c.http.Post(ctx, endpoint, body)
	if httpErr != nil {
		var se *httpjson.StatusError
		status := 0
		if errors.As(httpErr, &se) {
			status = se.Code
		}
		c.logger.Error("llm.judge.http_error",
			"req_id", rid, "status", status, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.PageVerdict{}, raw, fmt.Errorf("openai: %w", httpErr)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.judge.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return llm.PageVerdict{}, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.judge.no_choices", "req_id", rid, "raw", string(raw))
		return llm.PageVerdict{}, raw, fmt.Errorf("no choices in openai response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	if err := common.ValidateAgainst(schema, content); err != nil {
		if c.cfg.StrictValidation {
			c.logger.Error("llm.judge.schema_validation_failed", "req_id", rid, "error", err, "content", string(content))
			return llm.PageVerdict{}, content, fmt.Errorf("schema validation failed: %w", err)
		}
		cleaned, dropped, sErr := llm.SanitizeVerdict(content)
		if sErr != nil {
			c.logger.Error("llm.judge.sanitize_failed", "req_id", rid, "error", sErr)
			return llm.PageVerdict{}, content, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := common.ValidateAgainst(schema, cleaned); vErr != nil {
			c.logger.Error("llm.judge.schema_validation_failed", "req_id", rid, "error", vErr, "content", string(content))
			return llm.PageVerdict{}, content, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.logger.Warn("llm.judge.lenient_sanitize_applied", "req_id", rid, "dropped", dropped)
		content = cleaned
	}

	var out llm.PageVerdict
	if err := json.Unmarshal(content, &out); err != nil {
		return llm.PageVerdict{}, content, fmt.Errorf("unmarshal verdict: %w", err)
	}

	c.logger.Debug("llm.judge.ok",
		"req_id", rid,
		"page", req.PageIndex,
		"label", out.Label,
		"confidence", out.Confidence,
		"identifier", out.Identifier,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, content, nil
}

const systemPrompt = "You look at the top part of a scanned page from a Polish warehouse delivery-note batch (WZ, wydanie zewnetrzne). " +
	"Decide whether the page is the FIRST page of a delivery note (label DOCUMENT_START) or a later page of the previous note (label CONTINUATION). " +
	"A first page carries the document header with a number such as WZ-12/2024/AB/003 or the short code WZK. " +
	"If you can read the number, copy it exactly into 'identifier'. Never guess characters. " +
	"Never output null. If a field is not present, omit it."

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
