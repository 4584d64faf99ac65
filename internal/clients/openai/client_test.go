package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/selgeapp/selge-backend/internal/docgen"
	"github.com/selgeapp/selge-backend/internal/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)
	t.Setenv("OPENAI_MODEL", "gpt-test")
	t.Setenv("OPENAI_MAX_RETRIES", "0")

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	c, err := NewClient(log)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func documentJSON(t *testing.T) string {
	t.Helper()
	obj := make(map[string]string, 7)
	for _, key := range docgen.SectionKeys() {
		obj[string(key)] = "generated content for " + string(key)
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(raw)
}

func successBody(text string) map[string]any {
	return map[string]any{
		"output": []map[string]any{
			{
				"type": "message",
				"role": "assistant",
				"content": []map[string]any{
					{"type": "output_text", "text": text},
				},
			},
		},
	}
}

func TestGenerateDocumentSuccess(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq responsesRequest

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(successBody(documentJSON(t)))
	}))

	doc, err := c.GenerateDocument(context.Background(), "system text", "user text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, key := range docgen.SectionKeys() {
		if doc.Section(key) == "" {
			t.Fatalf("section %q empty after parse", key)
		}
	}

	if gotPath != "/v1/responses" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotReq.Temperature != temperature {
		t.Fatalf("temperature = %v", gotReq.Temperature)
	}
	if gotReq.Model != "gpt-test" {
		t.Fatalf("model = %q", gotReq.Model)
	}
	if len(gotReq.Input) != 2 || gotReq.Input[0].Role != "system" || gotReq.Input[1].Role != "user" {
		t.Fatalf("input messages = %+v", gotReq.Input)
	}
	format := gotReq.Text.Format
	if format["type"] != "json_schema" || format["strict"] != true {
		t.Fatalf("response format = %v", format)
	}
}

func TestGenerateDocumentStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		retryAfter string
		wantKind   docgen.FailureKind
	}{
		{name: "rate_limited", status: http.StatusTooManyRequests, retryAfter: "7", wantKind: docgen.FailureRateLimited},
		{name: "unauthorized", status: http.StatusUnauthorized, wantKind: docgen.FailurePaymentRequired},
		{name: "payment_required", status: http.StatusPaymentRequired, wantKind: docgen.FailurePaymentRequired},
		{name: "forbidden", status: http.StatusForbidden, wantKind: docgen.FailurePaymentRequired},
		{name: "bad_request", status: http.StatusBadRequest, wantKind: docgen.FailureUpstreamUnavailable},
		{name: "internal_error", status: http.StatusInternalServerError, wantKind: docgen.FailureUpstreamUnavailable},
		{name: "bad_gateway", status: http.StatusBadGateway, wantKind: docgen.FailureUpstreamUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.retryAfter != "" {
					w.Header().Set("Retry-After", tc.retryAfter)
				}
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":{"message":"upstream says no"}}`))
			}))

			_, err := c.GenerateDocument(context.Background(), "s", "u")
			if docgen.KindOf(err) != tc.wantKind {
				t.Fatalf("got %v, want kind %s", err, tc.wantKind)
			}
			if tc.retryAfter != "" {
				var ge *docgen.GenerationError
				if !errors.As(err, &ge) || ge.RetryAfter != 7*time.Second {
					t.Fatalf("retry-after hint not carried: %v", err)
				}
			}
		})
	}
}

func TestGenerateDocumentMalformedResponses(t *testing.T) {
	cases := []struct {
		name string
		body any
	}{
		{name: "refusal", body: map[string]any{"refusal": "cannot help with that"}},
		{name: "no_output_text", body: map[string]any{"output": []map[string]any{}}},
		{name: "output_not_json", body: successBody("plain prose, not JSON")},
		{name: "missing_section", body: successBody(`{"diagnosis-explanation":"only one key"}`)},
		{name: "extra_key", body: successBody(`{"diagnosis-explanation":"a","lifestyle-guidance":"b","six-month-timeline":"c","long-term-life-impact":"d","medications":"e","warning-signs":"f","contacts":"g","bonus":"h"}`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(tc.body)
			}))

			_, err := c.GenerateDocument(context.Background(), "s", "u")
			if docgen.KindOf(err) != docgen.FailureMalformedResponse {
				t.Fatalf("got %v, want malformed_response", err)
			}
		})
	}
}

func TestGenerateDocumentUnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listens anymore

	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)
	t.Setenv("OPENAI_MAX_RETRIES", "0")

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	c, err := NewClient(log)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = c.GenerateDocument(context.Background(), "s", "u")
	if docgen.KindOf(err) != docgen.FailureUpstreamUnavailable {
		t.Fatalf("got %v, want upstream_unavailable", err)
	}
}

func TestGenerateDocumentRetriesRetryableStatus(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(successBody(documentJSON(t)))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)
	t.Setenv("OPENAI_MAX_RETRIES", "1")

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	c, err := NewClient(log)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := c.GenerateDocument(context.Background(), "s", "u"); err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if hits != 2 {
		t.Fatalf("expected 2 requests, got %d", hits)
	}
}

func TestGenerateDocumentDoesNotRetryNonRetryableStatus(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)
	t.Setenv("OPENAI_MAX_RETRIES", "2")

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	c, err := NewClient(log)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = c.GenerateDocument(context.Background(), "s", "u")
	if docgen.KindOf(err) != docgen.FailurePaymentRequired {
		t.Fatalf("got %v, want payment_required", err)
	}
	if hits != 1 {
		t.Fatalf("expected a single request, got %d", hits)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	if _, err := NewClient(log); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
