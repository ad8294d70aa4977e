package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lawpaw/lawpaw/internal/core/domain"
)

func completionBody(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func newTestClient(serverURL string) *Client {
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "gpt-4o-mini",
	}, nil, nil)
}

func TestClassifyMergesResponseOverDefaults(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody(`{"document_type":"motion","moving_party":"Test Plaintiff","docket_number":"CV-2024-1234","tags":["civil","discovery"]}`)))
	}))
	defer server.Close()

	meta := newTestClient(server.URL).Classify(context.Background(), "SUPERIOR COURT caption text")

	if gotAuth != "Bearer test-key" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if rf, ok := gotBody["response_format"].(map[string]any); !ok || rf["type"] != "json_object" {
		t.Fatalf("response_format = %v", gotBody["response_format"])
	}

	if meta.DocumentType != "motion" {
		t.Fatalf("DocumentType = %q", meta.DocumentType)
	}
	if meta.DocketNumber != "CV-2024-1234" {
		t.Fatalf("DocketNumber = %q", meta.DocketNumber)
	}
	if meta.Tags != "civil,discovery" {
		t.Fatalf("Tags = %q, want comma-joined array", meta.Tags)
	}
	// Fields the model omitted fall back to defaults.
	if meta.RespondingParty != "unknown" {
		t.Fatalf("RespondingParty = %q, want unknown", meta.RespondingParty)
	}
	if meta.Error != "" {
		t.Fatalf("Error = %q, want empty on success", meta.Error)
	}
}

func TestClassifyExtractsFencedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(completionBody("```json\n{\"document_type\":\"opposition\"}\n```")))
	}))
	defer server.Close()

	meta := newTestClient(server.URL).Classify(context.Background(), "text")
	if meta.DocumentType != "opposition" {
		t.Fatalf("DocumentType = %q", meta.DocumentType)
	}
}

func TestClassifyServerErrorFallsBack(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer server.Close()

	meta := newTestClient(server.URL).Classify(context.Background(), "text")

	if calls != 1 {
		t.Fatalf("calls = %d, inference is at most one call per document", calls)
	}
	if meta.Error == "" {
		t.Fatalf("fallback record must carry the failure reason")
	}
	if meta.Summary != "Error analyzing document" {
		t.Fatalf("Summary = %q", meta.Summary)
	}
	if meta.DocumentType != "unknown" {
		t.Fatalf("DocumentType = %q, want default", meta.DocumentType)
	}
	if meta.FilingDate == "" {
		t.Fatalf("FilingDate must default to today")
	}
}

func TestClassifyUnparseableContentFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(completionBody("I could not determine the metadata.")))
	}))
	defer server.Close()

	meta := newTestClient(server.URL).Classify(context.Background(), "text")
	if meta.Error == "" {
		t.Fatalf("fallback record must carry the parse failure")
	}
	if !strings.Contains(meta.Error, "parse metadata json") {
		t.Fatalf("Error = %q", meta.Error)
	}
}

func TestClassifyPromptListsCanonicalFields(t *testing.T) {
	list := fieldList()
	for _, field := range domain.CanonicalFields {
		if field == domain.FieldError {
			if strings.Contains(list, field+",") {
				t.Fatalf("prompt must not ask the model for the %s field", field)
			}
			continue
		}
		if !strings.Contains(list, field) {
			t.Fatalf("prompt field list missing %q", field)
		}
	}
}
