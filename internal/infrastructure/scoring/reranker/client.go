package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
	"github.com/nexushealth/clinical-assistant/internal/infrastructure/resilience"
)

// Client scores query/passage pairs against a cross-encoder service. The
// service returns scores by candidate index; the client maps them back to
// document ids so callers never deal in positions.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model string, executor *resilience.Executor, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

type rerankCandidate struct {
	Text string `json:"text"`
}

type rerankRequest struct {
	Query      string            `json:"query"`
	Candidates []rerankCandidate `json:"candidates"`
	Model      string            `json:"model,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index int     `json:"index"`
		Score float64 `json:"score"`
	} `json:"results"`
}

func (c *Client) Score(ctx context.Context, query string, candidates []domain.ScoreCandidate) ([]domain.ScoreResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	req := rerankRequest{
		Query:      query,
		Candidates: make([]rerankCandidate, 0, len(candidates)),
		Model:      c.model,
	}
	for _, cand := range candidates {
		text := cand.Text
		if cand.Title != "" {
			text = cand.Title + "\n" + text
		}
		req.Candidates = append(req.Candidates, rerankCandidate{Text: text})
	}

	var resp rerankResponse
	call := func(callCtx context.Context) error {
		return c.post(callCtx, req, &resp)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "reranker.score", call, classifyRerankError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapRerankError(err)
	}

	results := make([]domain.ScoreResult, 0, len(resp.Results))
	for _, result := range resp.Results {
		if result.Index < 0 || result.Index >= len(candidates) {
			return nil, fmt.Errorf("rerank: result index %d out of range", result.Index)
		}
		results = append(results, domain.ScoreResult{
			ID:    candidates[result.Index].ID,
			Score: result.Score,
		})
	}
	return results, nil
}

func (c *Client) post(ctx context.Context, reqBody rerankRequest, out *rerankResponse) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/rerank", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rerank request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read rerank response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode, body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode rerank response: %w", err)
	}
	return nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("rerank status %d: %s", e.code, e.body)
}

func classifyRerankError(err error) resilience.Classification {
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		retryable := statusErr.code == http.StatusTooManyRequests || statusErr.code >= 500
		return resilience.Classification{Retryable: retryable, RecordFailure: retryable}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Classification{Retryable: false, RecordFailure: false}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.Classification{Retryable: true, RecordFailure: true}
	}
	return resilience.Classification{Retryable: false, RecordFailure: true}
}

func wrapRerankError(err error) error {
	class := classifyRerankError(err)
	if class.Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, "rerank", err)
	}
	return fmt.Errorf("rerank: %w", err)
}
