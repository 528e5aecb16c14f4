// Package worker handles the messages consumed from the notifications queue.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"studentspend/internal/amqp"
	"studentspend/internal/core"
	applog "studentspend/internal/log"
	"studentspend/internal/sheets"
)

// NotificationWorker files contact messages in the inbox and announces the
// pending shares of new split bills.
type NotificationWorker struct {
	inbox sheets.ContactInbox
}

// NewNotificationWorker creates a worker. With a nil inbox, contact messages
// are only logged.
func NewNotificationWorker(inbox sheets.ContactInbox) *NotificationWorker {
	return &NotificationWorker{inbox: inbox}
}

var _ amqp.Handler = (*NotificationWorker)(nil)

// HandleContactSubmitted appends the message to the contact inbox. An inbox
// failure is returned so the delivery is requeued.
func (w *NotificationWorker) HandleContactSubmitted(ctx context.Context, msg *amqp.ContactSubmittedMessage) error {
	m := core.ContactMessage{Name: msg.Name, Email: msg.Email, Message: msg.Message}
	if err := m.Validate(); err != nil {
		slog.WarnContext(ctx, "Discarding incomplete contact message", "email", msg.Email, "error", err)
		return nil
	}

	if w.inbox == nil {
		slog.InfoContext(ctx, "Contact message received, no inbox configured",
			"name", msg.Name, "email", msg.Email, "received_at", msg.ReceivedAt)
		return nil
	}

	if err := w.inbox.AppendContact(ctx, m, msg.ReceivedAt); err != nil {
		return fmt.Errorf("append contact to inbox: %w", err)
	}
	slog.InfoContext(ctx, "Contact message filed", "email", msg.Email, "received_at", msg.ReceivedAt)
	return nil
}

// HandleSplitCreated logs one pending-payment notice per unpaid participant.
func (w *NotificationWorker) HandleSplitCreated(ctx context.Context, msg *amqp.SplitCreatedMessage) error {
	unpaid := msg.Unpaid()
	share := core.FormatAmount(msg.AmountPerPerson)
	for _, p := range unpaid {
		slog.InfoContext(ctx, "Split payment pending",
			applog.FieldSplitID, msg.SplitID,
			"split_name", msg.Name,
			applog.FieldRegNo, p.RegNo,
			"participant", p.Name,
			"owed_to", msg.CreatedBy,
			"amount", share)
	}
	slog.InfoContext(ctx, "Split notification processed",
		applog.FieldSplitID, msg.SplitID, "pending", len(unpaid))
	return nil
}
