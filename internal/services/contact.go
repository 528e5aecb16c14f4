package services

import (
	"context"
	"log/slog"
	"strings"

	"studentspend/internal/amqp"
	"studentspend/internal/core"
	"studentspend/internal/metrics"
)

// ContactAcknowledgement is returned for every accepted contact message.
const ContactAcknowledgement = "Message received"

// ContactService accepts messages for the developers. Messages are not
// stored here; when a publisher is configured they are queued for the inbox.
type ContactService struct {
	publisher EventPublisher
	metrics   *metrics.Metrics
}

func NewContactService(pub EventPublisher, m *metrics.Metrics) *ContactService {
	return &ContactService{publisher: pub, metrics: m}
}

func (s *ContactService) Submit(ctx context.Context, m core.ContactMessage) (string, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	if err := m.Validate(); err != nil {
		return "", err
	}
	s.metrics.ContactReceived()
	slog.InfoContext(ctx, "Contact message received", "email", m.Email)

	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not available, contact message not forwarded")
		return ContactAcknowledgement, nil
	}
	err := s.publisher.PublishContact(ctx, m)
	s.metrics.EventPublished(amqp.TypeContactSubmitted, err)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish contact message", "error", err)
	}
	return ContactAcknowledgement, nil
}
