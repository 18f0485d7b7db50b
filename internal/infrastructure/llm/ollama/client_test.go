package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
)

func TestGeneratorCompleteSendsMessages(t *testing.T) {
	var captured struct {
		Model    string        `json:"model"`
		Messages []chatMessage `json:"messages"`
		Stream   bool          `json:"stream"`
		Format   string        `json:"format"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"  hola  "}}`))
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "llama3", "nomic-embed-text", Options{}))
	out, err := gen.Complete(context.Background(), []domain.Message{
		{Role: domain.RoleSystem, Content: "eres un asistente"},
		{Role: domain.RoleUser, Content: "hola"},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "hola" {
		t.Fatalf("expected trimmed content, got %q", out)
	}
	if captured.Model != "llama3" {
		t.Fatalf("expected model llama3, got %q", captured.Model)
	}
	if captured.Stream {
		t.Fatalf("streaming must be disabled")
	}
	if captured.Format != "" {
		t.Fatalf("Complete must not request a format, got %q", captured.Format)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", captured.Messages)
	}
}

func TestGeneratorCompleteJSONRequestsJSONFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["format"] != "json" {
			t.Fatalf("expected json format, got %v", req["format"])
		}
		_, _ = w.Write([]byte(`{"message":{"content":"{\"next\":\"FINISH\"}"}}`))
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "llama3", "nomic-embed-text", Options{}))
	out, err := gen.CompleteJSON(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "route"}})
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if out != `{"next":"FINISH"}` {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestChatPresentsToolMessagesAsAssistant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []chatMessage `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "assistant" {
			t.Fatalf("expected tool message sent as assistant, got %+v", req.Messages)
		}
		_, _ = w.Write([]byte(`{"message":{"content":"ok"}}`))
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "llama3", "nomic-embed-text", Options{}))
	if _, err := gen.Complete(context.Background(), []domain.Message{
		{Role: domain.RoleTool, Content: "findings", Worker: domain.WorkerRetrieval},
	}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
}

func TestEmbedQueryAppliesPrefixAndCollapsesWhitespace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Input) != 1 || req.Input[0] != "search_query: glucosa alta en ayunas" {
			t.Fatalf("unexpected input: %v", req.Input)
		}
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2,0.3]]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "llama3", "nomic-embed-text", Options{}))
	vec, err := embedder.EmbedQuery(context.Background(), "  glucosa   alta\nen ayunas ")
	if err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(vec))
	}
}

func TestEmbedPassagesAppliesDocumentPrefix(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		for _, input := range req.Input {
			if !strings.HasPrefix(input, "search_document: ") {
				t.Fatalf("passage missing prefix: %q", input)
			}
		}
		_, _ = w.Write([]byte(`{"embeddings":[[0.1],[0.2]]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "llama3", "nomic-embed-text", Options{}))
	vectors, err := embedder.EmbedPassages(context.Background(), []string{"doc uno", "doc dos"})
	if err != nil {
		t.Fatalf("EmbedPassages: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
}

func TestServerErrorIsTaggedTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "llama3", "nomic-embed-text", Options{}))
	_, err := gen.Complete(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hola"}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary kind, got %v", err)
	}
}

func TestClientErrorIsNotTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "missing", "nomic-embed-text", Options{}))
	_, err := gen.Complete(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hola"}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("4xx must not be tagged temporary: %v", err)
	}
}
