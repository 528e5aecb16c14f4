package amqp

import (
	"encoding/json"
	"time"

	"studentspend/internal/core"
)

// Message types, carried in the AMQP type property.
const (
	TypeContactSubmitted = "contact.submitted"
	TypeSplitCreated     = "split.created"
)

// ContactSubmittedMessage carries a contact form submission to the inbox.
type ContactSubmittedMessage struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// ParticipantNotice is the part of a split participant the notifier needs.
type ParticipantNotice struct {
	RegNo string `json:"regNo"`
	Name  string `json:"name"`
	Paid  bool   `json:"paid"`
}

// SplitCreatedMessage announces a new split bill so unpaid participants can
// be notified.
type SplitCreatedMessage struct {
	SplitID         string              `json:"splitId"`
	Name            string              `json:"name"`
	CreatedBy       string              `json:"createdBy"`
	AmountPerPerson float64             `json:"amountPerPerson"`
	Participants    []ParticipantNotice `json:"participants"`
	Timestamp       time.Time           `json:"timestamp"`
}

func NewContactSubmittedMessage(m core.ContactMessage) *ContactSubmittedMessage {
	return &ContactSubmittedMessage{
		Name:       m.Name,
		Email:      m.Email,
		Message:    m.Message,
		ReceivedAt: time.Now().UTC(),
	}
}

func NewSplitCreatedMessage(b core.SplitBill) *SplitCreatedMessage {
	parts := make([]ParticipantNotice, 0, len(b.Participants))
	for _, p := range b.Participants {
		parts = append(parts, ParticipantNotice{RegNo: p.RegNo, Name: p.Name, Paid: p.Paid})
	}
	return &SplitCreatedMessage{
		SplitID:         b.ID,
		Name:            b.Name,
		CreatedBy:       b.CreatedBy,
		AmountPerPerson: b.AmountPerPerson,
		Participants:    parts,
		Timestamp:       time.Now().UTC(),
	}
}

// Unpaid returns the participants still owing their share.
func (m *SplitCreatedMessage) Unpaid() []ParticipantNotice {
	var out []ParticipantNotice
	for _, p := range m.Participants {
		if !p.Paid {
			out = append(out, p)
		}
	}
	return out
}

func ContactSubmittedMessageFromJSON(data []byte) (*ContactSubmittedMessage, error) {
	var msg ContactSubmittedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func SplitCreatedMessageFromJSON(data []byte) (*SplitCreatedMessage, error) {
	var msg SplitCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
