package core

import (
	"strings"
	"time"
)

// SplitRequest describes a bill to divide evenly between its creator and the
// invited participants.
type SplitRequest struct {
	Name         string
	TotalAmount  float64
	Creator      Student
	Participants []Student
	Date         time.Time
}

// Validate checks the preconditions of AllocateSplit.
func (r SplitRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if r.TotalAmount <= 0 {
		return ErrInvalidTotal
	}
	if len(r.Participants) == 0 {
		return ErrNoParticipants
	}
	return nil
}

// AllocateSplit divides the total evenly across the creator and every
// participant. The creator counts as one share and is recorded as already
// paid; every invited participant starts unpaid.
//
// Shares use plain float64 division with no remainder redistribution, so the
// shares of a non-evenly-divisible total may differ from TotalAmount by a
// sub-cent residue.
//
// The returned bill has no ID; the store assigns one on persistence.
func AllocateSplit(r SplitRequest) SplitBill {
	shareCount := len(r.Participants) + 1
	perPerson := r.TotalAmount / float64(shareCount)

	participants := make([]ParticipantSnapshot, 0, shareCount)
	participants = append(participants, snapshot(r.Creator, true, perPerson))
	for _, p := range r.Participants {
		participants = append(participants, snapshot(p, false, perPerson))
	}

	date := r.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	return SplitBill{
		Name:            r.Name,
		TotalAmount:     r.TotalAmount,
		AmountPerPerson: perPerson,
		CreatedBy:       r.Creator.RegNo,
		Date:            date,
		Participants:    participants,
	}
}

func snapshot(s Student, paid bool, amount float64) ParticipantSnapshot {
	return ParticipantSnapshot{
		RegNo:  s.RegNo,
		Name:   s.Name,
		Paid:   paid,
		Amount: amount,
	}
}
