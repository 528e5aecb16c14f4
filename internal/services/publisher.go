// Package services holds the business rules of the tracker on top of the
// storage ports. Handlers and binaries talk to services, never to stores.
package services

import (
	"context"

	"studentspend/internal/core"
)

// EventPublisher hands domain events to the message broker. A nil publisher
// disables event publishing.
type EventPublisher interface {
	PublishContact(ctx context.Context, m core.ContactMessage) error
	PublishSplitCreated(ctx context.Context, b core.SplitBill) error
}
