package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nexushealth/clinical-assistant/internal/config"
	"github.com/nexushealth/clinical-assistant/internal/core/ports"
	"github.com/nexushealth/clinical-assistant/internal/core/usecase"
	"github.com/nexushealth/clinical-assistant/internal/infrastructure/llm/ollama"
	natsqueue "github.com/nexushealth/clinical-assistant/internal/infrastructure/queue/nats"
	"github.com/nexushealth/clinical-assistant/internal/infrastructure/repository/postgres"
	"github.com/nexushealth/clinical-assistant/internal/infrastructure/resilience"
	"github.com/nexushealth/clinical-assistant/internal/infrastructure/scoring/reranker"
	"github.com/nexushealth/clinical-assistant/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Metrics *metrics.Metrics

	Documents ports.DocumentStore
	Patients  ports.PatientStore
	Embedder  ports.Embedder

	Assistant     ports.Assistant
	AnswerService ports.AnswerService
	PatientLookup ports.PatientLookup

	// Seed-only stores with write access.
	DocumentWriter *postgres.DocumentStore
	PatientWriter  *postgres.PatientStore

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	documents := postgres.NewDocumentStore(db)
	patients := postgres.NewPatientStore(db)

	executor := resilience.NewExecutor(resilience.DefaultPolicy(), logger)

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		Executor:       executor,
		EmbedRateLimit: cfg.EmbedRateLimit,
	})
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	scorer := reranker.New(cfg.RerankerURL, cfg.RerankerModel, executor, 0)

	natsConn, err := natsqueue.Connect(cfg.NATSURL, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	turnPublisher := natsqueue.NewPublisher(natsConn, cfg.NATSSubject, executor)

	m := metrics.New()

	expander := usecase.NewQueryExpander(generator, logger)
	var retriever ports.Retriever = usecase.NewRetrievalPipeline(expander, embedder, documents, scorer, usecase.RetrievalConfig{
		TopK:          cfg.RetrievalTopK,
		MinScore:      cfg.RetrievalMinScore,
		Overfetch:     cfg.RetrievalOverfetch,
		MaxConcurrent: cfg.RetrievalMaxConcurrent,
	}, logger)
	retriever = &instrumentedRetriever{next: retriever, m: m}

	var patientLookup ports.PatientLookup = usecase.NewPatientLookupUseCase(patients)
	patientLookup = &instrumentedLookup{next: patientLookup, m: m}

	var assistant ports.Assistant = usecase.NewGraphUseCase(generator, retriever, patientLookup, turnPublisher, usecase.GraphLimits{
		MaxHops:         cfg.GraphMaxHops,
		Timeout:         time.Duration(cfg.GraphTurnTimeoutSecs) * time.Second,
		DecisionTimeout: time.Duration(cfg.GraphDecideTimeoutSecs) * time.Second,
		WorkerTimeout:   time.Duration(cfg.GraphWorkerTimeoutSecs) * time.Second,
	}, cfg.ReportTopK, logger)
	assistant = &instrumentedAssistant{next: assistant, m: m}

	answerService := usecase.NewAnswerUseCase(retriever, generator)

	return &App{
		Config:  cfg,
		Metrics: m,

		Documents: documents,
		Patients:  patients,
		Embedder:  embedder,

		Assistant:     assistant,
		AnswerService: answerService,
		PatientLookup: patientLookup,

		DocumentWriter: documents,
		PatientWriter:  patients,

		closeFn: func() {
			natsConn.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
