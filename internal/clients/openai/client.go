package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/selgeapp/selge-backend/internal/docgen"
	"github.com/selgeapp/selge-backend/internal/pkg/httpx"
	"github.com/selgeapp/selge-backend/internal/pkg/logger"
)

const (
	defaultBaseURL   = "https://api.openai.com"
	defaultModel     = "gpt-5.2"
	documentSchema   = "patient_document"
	temperature      = 0.2
	maxRetryAfterCap = 60 * time.Second

	retryBackoffBase = 500 * time.Millisecond
	retrySleepCap    = 5 * time.Second
)

// Client is the OpenAI-backed document invoker. One call is one generation
// attempt as far as the caller is concerned: content retries are owned by the
// caller, and this client only re-issues the HTTP request itself on retryable
// statuses and transport failures, bounded by OPENAI_MAX_RETRIES.
type Client interface {
	docgen.Invoker
	Model() string
}

type client struct {
	log             *logger.Logger
	baseURL         string
	apiKey          string
	model           string
	maxOutputTokens int
	maxRetries      int
	httpClient      *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}

	baseURL := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if model == "" {
		model = defaultModel
	}

	timeoutSec := 120
	if v := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeoutSec = n
		}
	}

	maxOutputTokens := 0
	if v := strings.TrimSpace(os.Getenv("OPENAI_MAX_OUTPUT_TOKENS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxOutputTokens = n
		}
	}

	maxRetries := 2
	if v := strings.TrimSpace(os.Getenv("OPENAI_MAX_RETRIES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			maxRetries = n
		}
	}

	return &client{
		log:             log.With("service", "OpenAIClient"),
		baseURL:         baseURL,
		apiKey:          apiKey,
		model:           model,
		maxOutputTokens: maxOutputTokens,
		maxRetries:      maxRetries,
		httpClient:      &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}, nil
}

func (c *client) Model() string { return c.model }

type responsesRequest struct {
	Model string `json:"model"`

	Input []inputMessage `json:"input"`

	Text struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`

	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"max_output_tokens,omitempty"`
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					out.WriteString(c.Text)
				}
			}
		}
	}
	return out.String()
}

// GenerateDocument performs exactly one structured-outputs call against the
// Responses API and maps every way it can fail onto the generation failure
// taxonomy.
func (c *client) GenerateDocument(ctx context.Context, system, user string) (docgen.PatientDocument, error) {
	var doc docgen.PatientDocument

	req := responsesRequest{
		Model: c.model,
		Input: []inputMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:     temperature,
		MaxOutputTokens: c.maxOutputTokens,
	}
	req.Text.Format = map[string]any{
		"type":   "json_schema",
		"name":   documentSchema,
		"schema": docgen.DocumentSchema(),
		"strict": true,
	}

	resp, raw, err := c.do(ctx, "/v1/responses", req)
	if err != nil {
		if ctx.Err() != nil {
			return doc, ctx.Err()
		}
		if httpx.IsTransportError(err) {
			return doc, docgen.UpstreamError(docgen.FailureUpstreamUnavailable, "model endpoint unreachable", err)
		}
		return doc, docgen.UpstreamError(docgen.FailureUpstreamUnavailable, "request failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return doc, c.classifyHTTPFailure(resp, raw)
	}

	var parsed responsesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return doc, docgen.UpstreamError(docgen.FailureMalformedResponse, "undecodable response body", err)
	}
	if r := strings.TrimSpace(parsed.Refusal); r != "" {
		return doc, docgen.UpstreamError(docgen.FailureMalformedResponse, fmt.Sprintf("model refused: %s", r), nil)
	}

	jsonText := strings.TrimSpace(extractOutputText(parsed))
	if jsonText == "" {
		return doc, docgen.UpstreamError(docgen.FailureMalformedResponse, "no output_text in response", nil)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(jsonText), &obj); err != nil {
		return doc, docgen.UpstreamError(docgen.FailureMalformedResponse, "output_text is not valid JSON", err)
	}
	return docgen.ParseDocument(obj)
}

// do runs post with bounded retries on transport failures and retryable HTTP
// statuses. Non-retryable statuses and context cancellation surface on the
// first occurrence.
func (c *client) do(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	var (
		resp *http.Response
		raw  []byte
		err  error
	)
	for attempt := 0; ; attempt++ {
		resp, raw, err = c.post(ctx, path, body)
		if ctx.Err() != nil {
			return resp, raw, err
		}
		if attempt >= c.maxRetries {
			return resp, raw, err
		}

		retryable := false
		if err != nil {
			retryable = httpx.IsTransportError(err)
		} else if resp != nil {
			retryable = httpx.IsRetryableHTTPStatus(resp.StatusCode)
		}
		if !retryable {
			return resp, raw, err
		}

		sleep := retryBackoffBase << attempt
		if resp != nil {
			if hint := httpx.RetryAfterHint(resp, retrySleepCap); hint > sleep {
				sleep = hint
			}
		}
		if sleep > retrySleepCap {
			sleep = retrySleepCap
		}
		c.log.Warn("retrying OpenAI request",
			"attempt", attempt+1,
			"sleep_ms", sleep.Milliseconds(),
		)

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return resp, raw, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *client) post(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	return resp, raw, nil
}

func (c *client) classifyHTTPFailure(resp *http.Response, raw []byte) *docgen.GenerationError {
	snippet := bodySnippet(raw)
	c.log.Warn("OpenAI request failed",
		"status", resp.StatusCode,
		"body", snippet,
	)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		ge := docgen.UpstreamError(docgen.FailureRateLimited, "model endpoint rate limited", nil)
		ge.RetryAfter = httpx.RetryAfterHint(resp, maxRetryAfterCap)
		return ge
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusPaymentRequired,
		resp.StatusCode == http.StatusForbidden:
		return docgen.UpstreamError(docgen.FailurePaymentRequired,
			fmt.Sprintf("model endpoint rejected credentials (http %d)", resp.StatusCode), nil)
	default:
		return docgen.UpstreamError(docgen.FailureUpstreamUnavailable,
			fmt.Sprintf("model endpoint returned http %d: %s", resp.StatusCode, snippet), nil)
	}
}

func bodySnippet(raw []byte) string {
	const max = 512
	s := strings.TrimSpace(string(raw))
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
