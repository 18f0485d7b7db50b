package bootstrap

import (
	"context"
	"strconv"
	"time"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
	"github.com/nexushealth/clinical-assistant/internal/core/ports"
	"github.com/nexushealth/clinical-assistant/internal/observability/metrics"
)

// Metric-recording decorators around the core use cases. The core stays
// free of collector types; everything observable here comes out of the
// public contracts.

type instrumentedRetriever struct {
	next ports.Retriever
	m    *metrics.Metrics
}

func (r *instrumentedRetriever) Retrieve(ctx context.Context, query string, k int, contextSummary string) ([]domain.Candidate, error) {
	start := time.Now()
	candidates, err := r.next.Retrieve(ctx, query, k, contextSummary)
	if err != nil {
		return nil, err
	}
	r.m.RetrievalDuration.Observe(time.Since(start).Seconds())
	r.m.RetrievalResults.Observe(float64(len(candidates)))
	return candidates, nil
}

type instrumentedAssistant struct {
	next ports.Assistant
	m    *metrics.Metrics
}

func (a *instrumentedAssistant) Run(ctx context.Context, userMessage string) (string, error) {
	result, err := a.RunConversation(ctx, userMessage)
	if err != nil {
		return "", err
	}
	return result.Answer, nil
}

func (a *instrumentedAssistant) RunConversation(ctx context.Context, userMessage string) (*domain.TurnResult, error) {
	start := time.Now()
	result, err := a.next.RunConversation(ctx, userMessage)
	if err != nil {
		return nil, err
	}
	a.m.GraphTurnDuration.Observe(time.Since(start).Seconds())
	a.m.GraphHops.Observe(float64(result.Hops))
	for _, route := range result.Routes {
		a.m.GraphDecisions.WithLabelValues(string(route), strconv.FormatBool(result.DecisionFallback && route == domain.RouteFinish)).Inc()
	}
	return result, nil
}

type instrumentedLookup struct {
	next ports.PatientLookup
	m    *metrics.Metrics
}

func (l *instrumentedLookup) Lookup(ctx context.Context, name string, id int64) (string, error) {
	report, err := l.next.Lookup(ctx, name, id)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	l.m.PatientLookups.WithLabelValues(outcome).Inc()
	return report, err
}
