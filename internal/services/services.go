// Package services implements the ledger use cases: the transaction
// lifecycle, category and student maintenance, opening balances and the
// aggregation engine behind dashboards and reports.
package services

import (
	"context"
	"fmt"

	"schoolaccounts/internal/amqp"
	"schoolaccounts/internal/core"
	"schoolaccounts/internal/log"
)

// EventPublisher announces ledger mutations to downstream consumers.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev amqp.LedgerEvent) error
}

// Invalidator drops derived data after a successful write.
type Invalidator interface {
	Invalidate()
}

var _ EventPublisher = (*amqp.Client)(nil)

// storeErr keeps taxonomy errors as they are and collapses everything else
// into a transient failure after logging the cause.
func storeErr(ctx context.Context, component, op string, err error) error {
	if core.IsKnown(err) {
		return err
	}
	log.NewStructuredLogger(log.FromContext(ctx)).
		LogError(ctx, "Store operation failed", err, component, op, log.NewFields())
	return core.Transient(fmt.Sprintf("Failed to %s. Please try again.", op), err)
}

// publish sends ev without failing the caller; the write is already durable
// and the mirror reconciles anything that was missed.
func publish(ctx context.Context, p EventPublisher, ev *amqp.LedgerEvent) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentAMQP)
	if p == nil {
		logger.DebugContext(ctx, "Event publisher not configured, skipping ledger event",
			log.FieldTransactionID, ev.TransactionID)
		return
	}
	if err := p.PublishLedgerEvent(ctx, *ev); err != nil {
		logger.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", ev.Kind,
			log.FieldTransactionID, ev.TransactionID,
			log.FieldVersion, ev.Version,
			log.FieldError, err)
	}
}

func invalidate(i Invalidator) {
	if i != nil {
		i.Invalidate()
	}
}
