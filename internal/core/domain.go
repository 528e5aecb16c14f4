package core

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	Weekly  BudgetPeriod = "weekly"
	Monthly BudgetPeriod = "monthly"
)

// Expense categories, in display order.
const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryBooks         Category = "Books"
	CategoryEntertainment Category = "Entertainment"
	CategoryUtilities     Category = "Utilities"
	CategoryOthers        Category = "Others"
)

// Categories is the fixed category enumeration. Breakdowns follow this order.
var Categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryBooks,
	CategoryEntertainment,
	CategoryUtilities,
	CategoryOthers,
}

const (
	DefaultBudgetAmount = 5000
	dateLayout          = "2006-01-02"
)

type (
	BudgetPeriod string

	Category string

	// Date is a calendar date. It travels as "YYYY-MM-DD" and also accepts
	// full RFC 3339 timestamps on input.
	Date struct {
		time.Time
	}

	Budget struct {
		Type   BudgetPeriod `json:"type"`
		Amount float64      `json:"amount"`
	}

	Student struct {
		RegNo   string  `json:"regNo"`
		Name    string  `json:"name"`
		Email   string  `json:"email,omitempty"`
		Section string  `json:"section,omitempty"`
		Budget  Budget  `json:"budget"`
		Income  float64 `json:"income"`
	}

	Expense struct {
		ID       string   `json:"id"`
		Name     string   `json:"name"`
		Amount   float64  `json:"amount"`
		Category Category `json:"category"`
		Date     Date     `json:"date"`
		RegNo    string   `json:"regNo"`
	}

	// ExpensePatch carries the fields of a partial expense update. Nil fields
	// are left untouched.
	ExpensePatch struct {
		Name     *string
		Amount   *float64
		Category *Category
		Date     *Date
		RegNo    *string
	}

	// ParticipantSnapshot is a copy of a student's identity taken when a split
	// is created. Later changes to the student record do not reach it.
	ParticipantSnapshot struct {
		RegNo  string  `json:"regNo"`
		Name   string  `json:"name"`
		Paid   bool    `json:"paid"`
		Amount float64 `json:"amount"`
	}

	SplitBill struct {
		ID              string                `json:"id"`
		Name            string                `json:"name"`
		TotalAmount     float64               `json:"totalAmount"`
		AmountPerPerson float64               `json:"amountPerPerson"`
		CreatedBy       string                `json:"createdBy"`
		Date            time.Time             `json:"date"`
		Participants    []ParticipantSnapshot `json:"participants"`
	}

	ContactMessage struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
)

var (
	ErrStudentNotFound  = errors.New("student not found")
	ErrExpenseNotFound  = errors.New("expense not found")
	ErrInvalidRegNo     = errors.New("invalid registration number format: must be 8 digits")
	ErrEmptyRegNo       = errors.New("empty registration number")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidTotal     = errors.New("total amount must be greater than zero")
	ErrNoParticipants   = errors.New("at least one participant is required")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyContactBody = errors.New("name, email and message are required")
)

var regNoPattern = regexp.MustCompile(`^\d{8}$`)

// NewStudent returns a student with the default budget and zero income.
func NewStudent(regNo, name string) Student {
	return Student{
		RegNo:  regNo,
		Name:   name,
		Budget: Budget{Type: Monthly, Amount: DefaultBudgetAmount},
	}
}

// NormalizeRegNo trims surrounding whitespace from a registration number.
func NormalizeRegNo(regNo string) string {
	return strings.TrimSpace(regNo)
}

// ValidateRegNo checks the fixed eight-digit format.
func ValidateRegNo(regNo string) error {
	if !regNoPattern.MatchString(regNo) {
		return ErrInvalidRegNo
	}
	return nil
}

// ParseCategory matches a category name exactly.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate accepts "YYYY-MM-DD" or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, ErrInvalidDate
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// YearMonth returns the "YYYY-MM" bucket key of the date.
func (d Date) YearMonth() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		if string(b) == "null" {
			*d = Date{}
			return nil
		}
		return ErrInvalidDate
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks required fields of an expense. The amount sign is not checked.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if strings.TrimSpace(e.RegNo) == "" {
		return ErrEmptyRegNo
	}
	return nil
}

// Apply returns a copy of e with the non-nil patch fields replaced.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.RegNo != nil {
		e.RegNo = *p.RegNo
	}
	return e
}

// Involves reports whether regNo created the bill or is one of its participants.
func (s SplitBill) Involves(regNo string) bool {
	if s.CreatedBy == regNo {
		return true
	}
	for _, p := range s.Participants {
		if p.RegNo == regNo {
			return true
		}
	}
	return false
}

func (m ContactMessage) Validate() error {
	if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Email) == "" || strings.TrimSpace(m.Message) == "" {
		return ErrEmptyContactBody
	}
	return nil
}
