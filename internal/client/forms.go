package client

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"studentspend/internal/core"
)

// Messages shown for rejected input, before anything reaches the server.
const (
	MsgInvalidRegNo   = "Invalid registration number format. Must be 8 digits"
	MsgExpenseFields  = "Please fill all fields"
	MsgSplitFields    = "Please fill all fields and add at least one participant"
	MsgContactFields  = "Please fill in your name, email and message"
	MinSearchTermRune = 3
)

// ValidationError is input rejected on the client side.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ValidateRegNo checks the eight-digit format locally.
func ValidateRegNo(regNo string) error {
	if core.ValidateRegNo(regNo) != nil {
		return &ValidationError{Message: MsgInvalidRegNo}
	}
	return nil
}

// ShouldSearch reports whether term is long enough to query the directory.
func ShouldSearch(term string) bool {
	return utf8.RuneCountInString(term) >= MinSearchTermRune
}

// ExpenseForm is the user's expense input. Category defaults to Food and the
// date to today on the server.
type ExpenseForm struct {
	Name     string
	Amount   float64
	Category core.Category
	Date     core.Date
}

// Validate requires a name and a non-zero amount.
func (f ExpenseForm) Validate() error {
	if strings.TrimSpace(f.Name) == "" || f.Amount == 0 {
		return &ValidationError{Message: MsgExpenseFields}
	}
	if f.Category != "" && !f.Category.Valid() {
		return &ValidationError{Message: fmt.Sprintf("Unknown category %q", f.Category)}
	}
	return nil
}

func (f ExpenseForm) fields(regNo string) ExpenseFields {
	name := strings.TrimSpace(f.Name)
	amount := f.Amount
	category := f.Category
	if category == "" {
		category = core.CategoryFood
	}
	out := ExpenseFields{Name: &name, Amount: &amount, Category: &category, RegNo: &regNo}
	if !f.Date.IsZero() {
		d := f.Date
		out.Date = &d
	}
	return out
}

// SplitForm collects a split bill before submission.
type SplitForm struct {
	Name         string
	Amount       float64
	participants []core.Student
}

// AddParticipant adds s unless it is self or already listed. It reports
// whether s was added.
func (f *SplitForm) AddParticipant(self string, s core.Student) bool {
	if s.RegNo == "" || s.RegNo == self {
		return false
	}
	for _, p := range f.participants {
		if p.RegNo == s.RegNo {
			return false
		}
	}
	f.participants = append(f.participants, s)
	return true
}

func (f *SplitForm) RemoveParticipant(regNo string) {
	kept := f.participants[:0]
	for _, p := range f.participants {
		if p.RegNo != regNo {
			kept = append(kept, p)
		}
	}
	f.participants = kept
}

func (f *SplitForm) Participants() []core.Student {
	return append([]core.Student(nil), f.participants...)
}

// Validate requires a name, a positive total and at least one participant.
func (f *SplitForm) Validate() error {
	if strings.TrimSpace(f.Name) == "" || f.Amount <= 0 || len(f.participants) == 0 {
		return &ValidationError{Message: MsgSplitFields}
	}
	return nil
}

// MailtoLink builds the mail-client hand-off for a contact message.
func MailtoLink(recipient string, m core.ContactMessage) string {
	q := url.Values{}
	q.Set("subject", "Contact from "+m.Name)
	q.Set("body", fmt.Sprintf("%s\r\n\r\nFrom: %s (%s)", m.Message, m.Name, m.Email))
	// mail clients expect %20 rather than + for spaces
	return "mailto:" + recipient + "?" + strings.ReplaceAll(q.Encode(), "+", "%20")
}
