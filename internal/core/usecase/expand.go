package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
	"github.com/nexushealth/clinical-assistant/internal/core/ports"
)

const maxExpandedVariants = 3

// QueryExpander turns a user question into a small set of technical search
// variants. Expansion is best-effort: any failure degrades to the original
// query alone.
type QueryExpander struct {
	generator ports.TextGenerator
	logger    *slog.Logger
}

func NewQueryExpander(generator ports.TextGenerator, logger *slog.Logger) *QueryExpander {
	return &QueryExpander{generator: generator, logger: logger}
}

// Expand returns a de-duplicated ordered list of search strings. The
// original query is always the last (or only) element.
func (e *QueryExpander) Expand(ctx context.Context, query, contextSummary string) []string {
	query = strings.TrimSpace(query)
	raw, err := e.generator.CompleteJSON(ctx, buildExpansionMessages(query, contextSummary))
	if err != nil {
		e.logger.Warn("query_expansion_failed", "query", query, "error", err.Error())
		return []string{query}
	}

	variants := parseExpansionResponse(raw)
	out := make([]string, 0, len(variants)+1)
	seen := make(map[string]struct{}, len(variants)+1)
	for _, v := range variants {
		v = strings.TrimSpace(v)
		if v == "" || v == query {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == maxExpandedVariants {
			break
		}
	}
	out = append(out, query)

	if len(out) > 1 {
		e.logger.Info("query_expanded", "query", query, "variants", len(out)-1)
	}
	return out
}

func buildExpansionMessages(query, contextSummary string) []domain.Message {
	var b strings.Builder
	b.WriteString(`You generate technical search variants for a clinical knowledge base.
Rewrite the user question into exactly 3 domain-specific reformulations:
one using medical synonyms, one expanding acronyms, and one framed as
diagnostic criteria. Keep each variant short and specific.
`)
	if contextSummary != "" {
		fmt.Fprintf(&b, "\nKnown patient context, bias the phrasing toward it:\n%s\n", contextSummary)
	}
	b.WriteString(`
Return ONLY a JSON object of this shape:
{"variants":["...","...","..."]}
`)
	fmt.Fprintf(&b, "\nQuestion: %s", query)

	return []domain.Message{{Role: domain.RoleUser, Content: b.String()}}
}

// parseExpansionResponse accepts the requested JSON object, a bare JSON
// array, or plain lines. Anything unparsable yields nil.
func parseExpansionResponse(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var wrapped struct {
		Variants []string `json:"variants"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && len(wrapped.Variants) > 0 {
		return wrapped.Variants
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err == nil && len(list) > 0 {
		return list
	}

	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. "))
		if line != "" && !strings.ContainsAny(line, "{}[]\"") {
			out = append(out, line)
		}
	}
	return out
}
