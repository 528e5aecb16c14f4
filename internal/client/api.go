// Package client is the Go counterpart of the tracker front end: an API
// client plus the session, validation and dashboard logic that run on the
// student's side of the wire.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"studentspend/internal/core"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// API talks to the REST endpoints under baseURL, e.g. http://localhost:5000/api.
type API struct {
	baseURL string
	http    *http.Client
}

type Option func(*API)

// WithHTTPClient replaces the default client, which times out after 15s.
func WithHTTPClient(c *http.Client) Option {
	return func(a *API) { a.http = c }
}

func NewAPI(baseURL string, opts ...Option) *API {
	a := &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ExpenseFields is the body of expense create and update calls. Nil fields
// are omitted, which leaves them untouched on update.
type ExpenseFields struct {
	Name     *string        `json:"name,omitempty"`
	Amount   *float64       `json:"amount,omitempty"`
	Category *core.Category `json:"category,omitempty"`
	Date     *core.Date     `json:"date,omitempty"`
	RegNo    *string        `json:"regNo,omitempty"`
}

type participantBody struct {
	RegNo string `json:"regNo"`
	Name  string `json:"name"`
}

type splitBody struct {
	Name         string            `json:"name"`
	TotalAmount  float64           `json:"totalAmount"`
	CreatedBy    string            `json:"createdBy"`
	Participants []participantBody `json:"participants"`
}

func (a *API) Login(ctx context.Context, regNo string) (core.Student, error) {
	var out struct {
		Student core.Student `json:"student"`
	}
	err := a.do(ctx, http.MethodPost, "/auth/login", map[string]string{"regNo": regNo}, &out)
	return out.Student, err
}

func (a *API) Student(ctx context.Context, regNo string) (core.Student, error) {
	var st core.Student
	err := a.do(ctx, http.MethodGet, "/students/"+url.PathEscape(regNo), nil, &st)
	return st, err
}

func (a *API) UpdateBudget(ctx context.Context, regNo string, b core.Budget) (core.Student, error) {
	var st core.Student
	err := a.do(ctx, http.MethodPut, "/students/"+url.PathEscape(regNo)+"/budget", map[string]core.Budget{"budget": b}, &st)
	return st, err
}

func (a *API) UpdateIncome(ctx context.Context, regNo string, income float64) (core.Student, error) {
	var st core.Student
	err := a.do(ctx, http.MethodPut, "/students/"+url.PathEscape(regNo)+"/income", map[string]float64{"income": income}, &st)
	return st, err
}

// SearchStudents queries the directory unconditionally. Use Session.Search
// for the gated variant.
func (a *API) SearchStudents(ctx context.Context, term, exclude string) ([]core.Student, error) {
	path := "/students/search/" + url.PathEscape(term)
	if exclude != "" {
		path += "?exclude=" + url.QueryEscape(exclude)
	}
	var out []core.Student
	err := a.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (a *API) Expenses(ctx context.Context, regNo string) ([]core.Expense, error) {
	var out []core.Expense
	err := a.do(ctx, http.MethodGet, "/expenses/"+url.PathEscape(regNo), nil, &out)
	return out, err
}

func (a *API) CreateExpense(ctx context.Context, f ExpenseFields) (core.Expense, error) {
	var e core.Expense
	err := a.do(ctx, http.MethodPost, "/expenses", f, &e)
	return e, err
}

func (a *API) UpdateExpense(ctx context.Context, id string, f ExpenseFields) (core.Expense, error) {
	var e core.Expense
	err := a.do(ctx, http.MethodPut, "/expenses/"+url.PathEscape(id), f, &e)
	return e, err
}

func (a *API) DeleteExpense(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/expenses/"+url.PathEscape(id), nil, nil)
}

func (a *API) Splits(ctx context.Context, regNo string) ([]core.SplitBill, error) {
	var out []core.SplitBill
	err := a.do(ctx, http.MethodGet, "/splits/"+url.PathEscape(regNo), nil, &out)
	return out, err
}

func (a *API) CreateSplit(ctx context.Context, name string, total float64, createdBy string, participants []core.Student) (core.SplitBill, error) {
	body := splitBody{Name: name, TotalAmount: total, CreatedBy: createdBy}
	for _, p := range participants {
		body.Participants = append(body.Participants, participantBody{RegNo: p.RegNo, Name: p.Name})
	}
	var b core.SplitBill
	err := a.do(ctx, http.MethodPost, "/splits", body, &b)
	return b, err
}

func (a *API) Summary(ctx context.Context, regNo string) (core.Summary, error) {
	var s core.Summary
	err := a.do(ctx, http.MethodGet, "/summary/"+url.PathEscape(regNo), nil, &s)
	return s, err
}

// Contact sends a contact message and returns the server acknowledgement.
func (a *API) Contact(ctx context.Context, m core.ContactMessage) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := a.do(ctx, http.MethodPost, "/contact", m, &out)
	return out.Message, err
}

func (a *API) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
