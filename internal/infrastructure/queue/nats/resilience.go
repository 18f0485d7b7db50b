package nats

import (
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
	"github.com/nexushealth/clinical-assistant/internal/infrastructure/resilience"
)

func classifyNATSError(err error) resilience.Classification {
	switch {
	case errors.Is(err, nats.ErrConnectionClosed),
		errors.Is(err, nats.ErrConnectionDraining),
		errors.Is(err, nats.ErrConnectionReconnecting),
		errors.Is(err, nats.ErrTimeout),
		errors.Is(err, nats.ErrReconnectBufExceeded):
		return resilience.Classification{Retryable: true, RecordFailure: true}
	case errors.Is(err, nats.ErrBadSubject), errors.Is(err, nats.ErrMaxPayload):
		return resilience.Classification{Retryable: false, RecordFailure: false}
	default:
		return resilience.Classification{Retryable: false, RecordFailure: true}
	}
}

func wrapPublishError(err error) error {
	class := classifyNATSError(err)
	if class.Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, "publish turn", err)
	}
	return fmt.Errorf("publish turn: %w", err)
}
