package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
	"github.com/nexushealth/clinical-assistant/internal/infrastructure/resilience"
)

// Semantic prefixes for nomic-style embedding models. Queries and stored
// passages must use matching conventions for distances to be comparable.
const (
	queryPrefix   = "search_query: "
	passagePrefix = "search_document: "
)

type Client struct {
	baseURL      string
	genModel     string
	embedModel   string
	httpClient   *http.Client
	executor     *resilience.Executor
	embedLimiter *rate.Limiter
}

type Options struct {
	Executor       *resilience.Executor
	EmbedRateLimit float64
	RequestTimeout time.Duration
}

func New(baseURL, genModel, embedModel string, options Options) *Client {
	timeout := options.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	var limiter *rate.Limiter
	if options.EmbedRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.EmbedRateLimit), 1)
	}

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		genModel:     genModel,
		embedModel:   embedModel,
		httpClient:   &http.Client{Timeout: timeout},
		executor:     options.Executor,
		embedLimiter: limiter,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator implements the chat-completion contract over /api/chat.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	return g.client.chat(ctx, messages, "")
}

func (g *Generator) CompleteJSON(ctx context.Context, messages []domain.Message) (string, error) {
	return g.client.chat(ctx, messages, "json")
}

func (c *Client) chat(ctx context.Context, messages []domain.Message, format string) (string, error) {
	reqBody := map[string]any{
		"model":    c.genModel,
		"messages": toChatMessages(messages),
		"stream":   false,
	}
	if format != "" {
		reqBody["format"] = format
	}

	var response struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	err := c.execute(ctx, "chat", func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/chat", reqBody, &response, "chat")
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Message.Content), nil
}

func toChatMessages(messages []domain.Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		role := string(msg.Role)
		// Worker reports carry no tool-call ids; present them as
		// assistant turns the chat endpoint accepts.
		if msg.Role == domain.RoleTool {
			role = string(domain.RoleAssistant)
		}
		out = append(out, chatMessage{Role: role, Content: msg.Content})
	}
	return out
}

// Embedder implements the embedding contract over /api/embed.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.client.embed(ctx, []string{queryPrefix + collapseWhitespace(text)})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

func (e *Embedder) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	prefixed := make([]string, 0, len(texts))
	for _, text := range texts {
		prefixed = append(prefixed, passagePrefix+collapseWhitespace(text))
	}
	return e.client.embed(ctx, prefixed)
}

func (c *Client) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if c.embedLimiter != nil {
		if err := c.embedLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embed rate limiter: %w", err)
		}
	}

	reqBody := map[string]any{
		"model": c.embedModel,
		"input": inputs,
	}
	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := c.execute(ctx, "embed", func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/embed", reqBody, &response, "embed")
	})
	if err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (c *Client) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama."+operation, call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded("ollama "+operation, err)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
