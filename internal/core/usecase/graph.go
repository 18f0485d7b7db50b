package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
	"github.com/nexushealth/clinical-assistant/internal/core/ports"
)

type GraphLimits struct {
	MaxHops         int
	Timeout         time.Duration
	DecisionTimeout time.Duration
	WorkerTimeout   time.Duration
}

func (l GraphLimits) normalize() GraphLimits {
	out := l
	if out.MaxHops <= 0 {
		out.MaxHops = 6
	}
	if out.Timeout <= 0 {
		out.Timeout = 90 * time.Second
	}
	if out.DecisionTimeout <= 0 {
		out.DecisionTimeout = 20 * time.Second
	}
	if out.WorkerTimeout <= 0 {
		out.WorkerTimeout = 30 * time.Second
	}
	return out
}

// GraphUseCase is the supervisor/worker state machine. One Run call is one
// conversation turn: the supervisor decides, a worker acts and reports
// back, and the loop ends on FINISH or at the hop bound.
type GraphUseCase struct {
	generator ports.TextGenerator
	retriever ports.Retriever
	patients  ports.PatientLookup
	events    ports.TurnPublisher
	limits    GraphLimits
	topK      int
	logger    *slog.Logger
}

func NewGraphUseCase(
	generator ports.TextGenerator,
	retriever ports.Retriever,
	patients ports.PatientLookup,
	events ports.TurnPublisher,
	limits GraphLimits,
	topK int,
	logger *slog.Logger,
) *GraphUseCase {
	if topK <= 0 {
		topK = 4
	}
	return &GraphUseCase{
		generator: generator,
		retriever: retriever,
		patients:  patients,
		events:    events,
		limits:    limits.normalize(),
		topK:      topK,
		logger:    logger,
	}
}

// Run returns only the final assistant text.
func (g *GraphUseCase) Run(ctx context.Context, userMessage string) (string, error) {
	result, err := g.RunConversation(ctx, userMessage)
	if err != nil {
		return "", err
	}
	return result.Answer, nil
}

// RunConversation executes the full graph turn and reports hop metadata
// alongside the answer.
func (g *GraphUseCase) RunConversation(ctx context.Context, userMessage string) (*domain.TurnResult, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "graph run", fmt.Errorf("user message is required"))
	}

	turnCtx, cancel := context.WithTimeout(ctx, g.limits.Timeout)
	defer cancel()

	conv := domain.NewConversation(uuid.NewString())
	conv.Append(domain.Message{Role: domain.RoleUser, Content: userMessage})

	result := &domain.TurnResult{ConversationID: conv.ID}

	// Explicit bounded loop: workers always hand control back to the
	// supervisor, and the hop bound guarantees termination even when the
	// upstream generator keeps routing to a worker.
	for hop := 1; hop <= g.limits.MaxHops; hop++ {
		result.Hops = hop

		route, fallback := g.decide(turnCtx, conv)
		conv.Next = route
		result.Routes = append(result.Routes, route)
		if fallback {
			result.DecisionFallback = true
		}

		if route == domain.RouteFinish {
			break
		}

		msg, err := g.runWorker(turnCtx, conv, route)
		if err != nil {
			return nil, err
		}
		conv.Append(msg)
	}

	answer := g.finalize(turnCtx, conv)
	conv.Append(domain.Message{Role: domain.RoleAssistant, Content: answer})
	result.Answer = answer

	g.publishTurn(ctx, conv.ID, userMessage, answer, result.Hops)
	return result, nil
}

// decide issues one structured decision call. Any failure, missing field,
// or unknown token degrades to FINISH; this is the safeguard against
// supervisor/worker cycles on a misbehaving generator.
func (g *GraphUseCase) decide(ctx context.Context, conv *domain.Conversation) (domain.Route, bool) {
	decisionCtx, cancel := context.WithTimeout(ctx, g.limits.DecisionTimeout)
	defer cancel()

	raw, err := g.generator.CompleteJSON(decisionCtx, buildSupervisorMessages(conv))
	if err != nil {
		g.logger.Warn("decision_fallback", "conversation_id", conv.ID, "reason", "generation_error", "error", err.Error())
		return domain.RouteFinish, true
	}

	var decision struct {
		Next string `json:"next"`
	}
	if err := json.Unmarshal([]byte(raw), &decision); err != nil {
		g.logger.Warn("decision_fallback", "conversation_id", conv.ID, "reason", "unparsable_json")
		return domain.RouteFinish, true
	}

	route, ok := domain.ParseRoute(strings.ToUpper(strings.TrimSpace(decision.Next)))
	if !ok {
		g.logger.Warn("decision_fallback", "conversation_id", conv.ID, "reason", "unknown_route", "value", decision.Next)
		return domain.RouteFinish, true
	}
	return route, false
}

func (g *GraphUseCase) runWorker(ctx context.Context, conv *domain.Conversation, route domain.Route) (domain.Message, error) {
	workerCtx, cancel := context.WithTimeout(ctx, g.limits.WorkerTimeout)
	defer cancel()

	switch route {
	case domain.RouteRetrievalWorker:
		return g.runRetrievalWorker(workerCtx, conv)
	case domain.RoutePatientWorker:
		return g.runPatientWorker(workerCtx, conv)
	default:
		return domain.Message{}, domain.WrapError(domain.ErrDecisionFailed, "run worker", fmt.Errorf("unroutable decision %q", route))
	}
}

func (g *GraphUseCase) runRetrievalWorker(ctx context.Context, conv *domain.Conversation) (domain.Message, error) {
	query := conv.LastUserMessage()
	contextSummary := patientContextSummary(conv)

	candidates, err := g.retriever.Retrieve(ctx, query, g.topK, contextSummary)
	if err != nil {
		return domain.Message{}, err
	}

	return domain.Message{
		Role:    domain.RoleTool,
		Worker:  domain.WorkerRetrieval,
		Content: formatRetrievalFindings(query, contextSummary, candidates),
	}, nil
}

func (g *GraphUseCase) runPatientWorker(ctx context.Context, conv *domain.Conversation) (domain.Message, error) {
	name, id := g.extractPatientArgs(ctx, conv)

	report, err := g.patients.Lookup(ctx, name, id)
	if err != nil {
		return domain.Message{}, domain.WrapError(domain.ErrDecisionFailed, "patient worker", err)
	}

	return domain.Message{
		Role:    domain.RoleTool,
		Worker:  domain.WorkerPatient,
		Content: report,
	}, nil
}

// extractPatientArgs asks the generator which patient the conversation is
// about. On failure the worker proceeds with empty arguments and the lookup
// renders its usage text instead.
func (g *GraphUseCase) extractPatientArgs(ctx context.Context, conv *domain.Conversation) (string, int64) {
	raw, err := g.generator.CompleteJSON(ctx, buildPatientArgsMessages(conv))
	if err != nil {
		g.logger.Warn("patient_args_extraction_failed", "conversation_id", conv.ID, "error", err.Error())
		return "", 0
	}

	var args struct {
		Name string `json:"name"`
		ID   int64  `json:"id"`
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		g.logger.Warn("patient_args_extraction_failed", "conversation_id", conv.ID, "error", "unparsable_json")
		return "", 0
	}
	return strings.TrimSpace(args.Name), args.ID
}

// finalize composes the final assistant answer from the accumulated state.
// If the composition call fails the graph degrades to the message history
// it already has rather than surfacing an error.
func (g *GraphUseCase) finalize(ctx context.Context, conv *domain.Conversation) string {
	answer, err := g.generator.Complete(ctx, buildSpecialistMessages(conv))
	if err == nil {
		answer = strings.TrimSpace(answer)
		if answer != "" {
			return answer
		}
	}
	if err != nil {
		g.logger.Warn("final_answer_fallback", "conversation_id", conv.ID, "error", err.Error())
	}

	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if conv.Messages[i].Role != domain.RoleUser && strings.TrimSpace(conv.Messages[i].Content) != "" {
			return conv.Messages[i].Content
		}
	}
	return "I could not produce an answer for this request. Please try again."
}

func (g *GraphUseCase) publishTurn(ctx context.Context, conversationID, question, answer string, hops int) {
	if g.events == nil {
		return
	}
	event := domain.TurnEvent{
		ConversationID: conversationID,
		Question:       question,
		Answer:         answer,
		Hops:           hops,
		CreatedAt:      time.Now().UTC(),
	}
	if err := g.events.PublishTurnCompleted(ctx, event); err != nil {
		g.logger.Warn("turn_publish_failed", "conversation_id", conversationID, "error", err.Error())
	}
}

// patientContextSummary condenses the last patient report into a short
// string the retrieval pipeline can use to bias search phrasing.
func patientContextSummary(conv *domain.Conversation) string {
	msg, ok := conv.LastFromWorker(domain.WorkerPatient)
	if !ok {
		return ""
	}
	summary := strings.Join(strings.Fields(msg.Content), " ")
	const maxRunes = 240
	runes := []rune(summary)
	if len(runes) > maxRunes {
		summary = string(runes[:maxRunes])
	}
	return summary
}

func formatRetrievalFindings(query, contextSummary string, candidates []domain.Candidate) string {
	if len(candidates) == 0 {
		return "No relevant information was found in the clinical knowledge base for this question. Do not search again; report that the guidelines contain nothing on this topic."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for: %q\n", query)
	if contextSummary != "" {
		fmt.Fprintf(&b, "(patient context applied: %s)\n", contextSummary)
	}
	for i, c := range candidates {
		fmt.Fprintf(&b, "\n[Doc %d] %s\nSource: %s\nScore: %.2f\n%s\n--- end of fragment ---\n",
			i+1, c.Document.Title, c.Document.Source, c.Score, strings.TrimSpace(c.Document.Content))
	}
	return b.String()
}
