package sheets

import (
	"context"
	"time"

	"studentspend/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// RosterReader returns the student roster as header-keyed rows. Cell values
	// keep the source's types; the importer normalises them.
	RosterReader interface {
		ReadRoster(ctx context.Context) ([]map[string]any, error)
	}

	// ContactInbox records contact form submissions.
	ContactInbox interface {
		AppendContact(ctx context.Context, m core.ContactMessage, receivedAt time.Time) error
	}
)
