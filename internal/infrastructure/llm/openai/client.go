// Package openai classifies extracted document text into the canonical legal
// metadata record via an OpenAI-compatible chat completions endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lawpaw/lawpaw/internal/core/domain"
	"github.com/lawpaw/lawpaw/internal/infrastructure/resilience"
)

type Config struct {
	APIKey      string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // e.g. "gpt-4o-mini"
	Temperature float32
	Timeout     time.Duration // http client timeout
}

type Client struct {
	cfg      Config
	http     *http.Client
	executor *resilience.Executor
	logger   *slog.Logger
	now      func() time.Time
}

func NewClient(cfg Config, executor *resilience.Executor, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.SingleAttempt())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		executor: executor,
		logger:   logger,
		now:      time.Now,
	}
}

// Classify sends the text to the inference service exactly once and overlays
// the parsed response onto the complete default record. Any failure, from
// transport to unparseable output, degrades to the full fallback record with
// the reason in the error field. It never returns an error to the caller.
func (c *Client) Classify(ctx context.Context, text string) domain.Metadata {
	rid := uuid.NewString()
	start := c.now()

	var partial map[string]string
	err := c.executor.Execute(ctx, "openai.classify", func(ctx context.Context) error {
		raw, err := c.post(ctx, buildRequestBody(c.cfg.Model, c.cfg.Temperature, text))
		if err != nil {
			return err
		}
		partial, err = parseCompletion(raw)
		return err
	}, classifyHTTPError)

	if err != nil {
		c.logger.Error("llm.classify.fallback",
			"req_id", rid,
			"error", err,
			"elapsed_ms", c.now().Sub(start).Milliseconds(),
		)
		return domain.FallbackMetadata(c.now(), err.Error())
	}

	meta := domain.MergeMetadata(c.now(), partial)
	c.logger.Info("llm.classify.ok",
		"req_id", rid,
		"document_type", meta.DocumentType,
		"docket_number", meta.DocketNumber,
		"filing_date", meta.FilingDate,
		"elapsed_ms", c.now().Sub(start).Milliseconds(),
	)
	return meta
}

func (c *Client) post(ctx context.Context, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("llm.response_body_close_error", "error", err)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{
			Operation:  "classify",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}
	return raw, nil
}

// parseCompletion pulls the message content out of the chat response and
// decodes it as a flat string map. Non-string scalars are stringified and
// string arrays (typically tags) are comma-joined.
func parseCompletion(raw []byte) (map[string]string, error) {
	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, fmt.Errorf("decode completion response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return nil, fmt.Errorf("no choices in completion response")
	}

	content := extractJSONObject(strings.TrimSpace(cc.Choices[0].Message.Content))
	var fields map[string]any
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, fmt.Errorf("parse metadata json: %w", err)
	}

	out := make(map[string]string, len(fields))
	for k, v := range fields {
		switch t := v.(type) {
		case string:
			out[k] = strings.TrimSpace(t)
		case float64:
			out[k] = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", t), "0"), ".")
		case bool:
			out[k] = fmt.Sprintf("%t", t)
		case []any:
			parts := make([]string, 0, len(t))
			for _, item := range t {
				if s, ok := item.(string); ok {
					parts = append(parts, strings.TrimSpace(s))
				}
			}
			out[k] = strings.Join(parts, ",")
		}
	}
	return out, nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
