package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
	"github.com/nexushealth/clinical-assistant/internal/infrastructure/resilience"
)

// Publisher emits completed conversation turns for the external
// chat-history consumer. Publishing is fire-and-forget from the caller's
// point of view; a lost event never fails the turn.
type Publisher struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats_disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			logger.Info("nats_reconnected", "url", conn.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return conn, nil
}

func NewPublisher(conn *nats.Conn, subject string, executor *resilience.Executor) *Publisher {
	return &Publisher{conn: conn, subject: subject, executor: executor}
}

func (p *Publisher) PublishTurnCompleted(ctx context.Context, event domain.TurnEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal turn event: %w", err)
	}

	publish := func(context.Context) error {
		return p.conn.Publish(p.subject, payload)
	}

	if p.executor != nil {
		err = p.executor.Execute(ctx, "nats.publish_turn", publish, classifyNATSError)
	} else {
		err = publish(ctx)
	}
	if err != nil {
		return wrapPublishError(err)
	}
	return nil
}
