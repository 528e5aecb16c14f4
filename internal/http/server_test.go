package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"studentspend/internal/core"
	"studentspend/internal/metrics"
	"studentspend/internal/storage"
	"studentspend/internal/storage/memory"
	"studentspend/internal/storage/storagetest"
)

type fakePublisher struct {
	mu       sync.Mutex
	contacts int
	splits   int
}

func (p *fakePublisher) PublishContact(context.Context, core.ContactMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.contacts++
	return nil
}

func (p *fakePublisher) PublishSplitCreated(context.Context, core.SplitBill) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.splits++
	return nil
}

type brokenStore struct {
	storage.Store
}

func (brokenStore) ListExpenses(context.Context, string) ([]core.Expense, error) {
	return nil, errors.New("connection reset by peer")
}

func (brokenStore) Ping(context.Context) error { return errors.New("down") }

func newTestServer(t *testing.T) (*Server, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	srv := NewServer(Options{
		Addr:      ":0",
		Store:     memory.New(storagetest.Roster()...),
		Publisher: pub,
		Metrics:   metrics.New(),
	})
	return srv, pub
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReadiness(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		if rr := do(t, srv, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	broken := NewServer(Options{Store: brokenStore{Store: memory.New()}})
	if rr := do(t, broken, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz on broken store status=%d", rr.Code)
	}
}

func TestLogin(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"string regNo", `{"regNo":"11111111"}`, http.StatusOK, ""},
		{"padded regNo", `{"regNo":"  11111111 "}`, http.StatusOK, ""},
		{"numeric regNo", `{"regNo":22222222}`, http.StatusOK, ""},
		{"unknown regNo", `{"regNo":"12345678"}`, http.StatusNotFound, "Registration number not found"},
		{"missing regNo", `{}`, http.StatusBadRequest, "regNo is required"},
		{"malformed body", `{"regNo":`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/auth/login", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				got := decode[loginResponse](t, rr)
				if got.Student.RegNo == "" {
					t.Fatalf("missing student in %s", rr.Body.String())
				}
				return
			}
			got := decode[errorResponse](t, rr)
			if got.Error == "" || (tt.wantError != "" && got.Error != tt.wantError) {
				t.Fatalf("error=%q, want %q", got.Error, tt.wantError)
			}
		})
	}
}

func TestStudentEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/students/11111111", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("profile status=%d", rr.Code)
	}
	if st := decode[core.Student](t, rr); st.Name != "Asha Rao" || st.Budget.Amount != 5000 {
		t.Fatalf("unexpected profile %+v", st)
	}

	rr = do(t, srv, http.MethodGet, "/api/students/99999999", "")
	if rr.Code != http.StatusNotFound || decode[errorResponse](t, rr).Error != "Student not found" {
		t.Fatalf("missing profile: %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodPut, "/api/students/11111111/budget", `{"budget":{"type":"weekly","amount":750}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("budget status=%d body=%s", rr.Code, rr.Body.String())
	}
	if st := decode[core.Student](t, rr); st.Budget != (core.Budget{Type: core.Weekly, Amount: 750}) {
		t.Fatalf("budget not replaced: %+v", st.Budget)
	}

	rr = do(t, srv, http.MethodPut, "/api/students/11111111/income", `{"income":0}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("income status=%d body=%s", rr.Code, rr.Body.String())
	}

	if rr = do(t, srv, http.MethodPut, "/api/students/11111111/income", `{}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing income status=%d", rr.Code)
	}
	if rr = do(t, srv, http.MethodPut, "/api/students/99999999/budget", `{"budget":{"type":"monthly","amount":1}}`); rr.Code != http.StatusNotFound {
		t.Fatalf("budget for unknown student status=%d", rr.Code)
	}
}

func TestSearch(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/students/search/ash?exclude=11111111", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	got := decode[[]core.Student](t, rr)
	if len(got) != 1 || got[0].RegNo != "12300000" {
		t.Fatalf("unexpected matches %+v", got)
	}

	rr = do(t, srv, http.MethodGet, "/api/students/search/as", "")
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("short term: %d %s", rr.Code, rr.Body.String())
	}
}

func TestExpenseLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/expenses",
		`{"name":"Textbook","amount":420.5,"category":"Books","date":"2026-02-11","regNo":"11111111"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[core.Expense](t, rr)
	if created.ID == "" || created.Date != core.NewDate(2026, 2, 11) {
		t.Fatalf("unexpected expense %+v", created)
	}

	rr = do(t, srv, http.MethodPut, "/api/expenses/"+created.ID, `{"amount":400,"category":"Others"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	if updated := decode[core.Expense](t, rr); updated.Amount != 400 || updated.Category != core.CategoryOthers || updated.Name != "Textbook" {
		t.Fatalf("unexpected update %+v", updated)
	}

	rr = do(t, srv, http.MethodGet, "/api/expenses/11111111", "")
	if list := decode[[]core.Expense](t, rr); len(list) != 1 {
		t.Fatalf("list = %+v", list)
	}

	rr = do(t, srv, http.MethodDelete, "/api/expenses/"+created.ID, "")
	if rr.Code != http.StatusOK || decode[messageResponse](t, rr).Message != "Expense deleted" {
		t.Fatalf("delete: %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodDelete, "/api/expenses/"+created.ID, "")
	if rr.Code != http.StatusNotFound || decode[errorResponse](t, rr).Error != "Expense not found" {
		t.Fatalf("second delete: %d %s", rr.Code, rr.Body.String())
	}
	if rr = do(t, srv, http.MethodPut, "/api/expenses/"+created.ID, `{"amount":1}`); rr.Code != http.StatusNotFound {
		t.Fatalf("update missing status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/api/expenses/22222222", "")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("empty list should encode as [], got %s", rr.Body.String())
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	tests := map[string]string{
		"missing name":     `{"amount":1,"category":"Food","regNo":"11111111"}`,
		"missing amount":   `{"name":"x","category":"Food","regNo":"11111111"}`,
		"unknown category": `{"name":"x","amount":1,"category":"Snacks","regNo":"11111111"}`,
		"bad date":         `{"name":"x","amount":1,"category":"Food","date":"11/02/2026","regNo":"11111111"}`,
		"missing regNo":    `{"name":"x","amount":1,"category":"Food"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/expenses", body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestSplits(t *testing.T) {
	srv, pub := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/splits", `{
		"name":"Dinner","totalAmount":90,"createdBy":"11111111",
		"participants":[{"regNo":"22222222","name":"Bilal Khan","paid":true},{"regNo":33333333,"name":"Chen Li"}]
	}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	bill := decode[core.SplitBill](t, rr)
	if bill.AmountPerPerson != 30 || len(bill.Participants) != 3 {
		t.Fatalf("unexpected bill %+v", bill)
	}
	if !bill.Participants[0].Paid || bill.Participants[1].Paid || bill.Participants[2].Paid {
		t.Fatalf("paid flags wrong: %+v", bill.Participants)
	}
	if pub.splits != 1 {
		t.Fatalf("split.created published %d times", pub.splits)
	}

	for _, regNo := range []string{"11111111", "33333333"} {
		rr = do(t, srv, http.MethodGet, "/api/splits/"+regNo, "")
		if list := decode[[]core.SplitBill](t, rr); len(list) != 1 {
			t.Fatalf("splits for %s = %d", regNo, len(list))
		}
	}

	bad := map[string]string{
		"no participants":           `{"name":"x","totalAmount":10,"createdBy":"11111111","participants":[]}`,
		"zero total":                `{"name":"x","totalAmount":0,"createdBy":"11111111","participants":[{"regNo":"22222222"}]}`,
		"participant without regNo": `{"name":"x","totalAmount":10,"createdBy":"11111111","participants":[{"name":"y"}]}`,
	}
	for name, body := range bad {
		if rr := do(t, srv, http.MethodPost, "/api/splits", body); rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d body=%s", name, rr.Code, rr.Body.String())
		}
	}

	rr = do(t, srv, http.MethodPost, "/api/splits",
		`{"name":"x","totalAmount":10,"createdBy":"99999999","participants":[{"regNo":"22222222"}]}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown creator status=%d", rr.Code)
	}
}

func TestSummary(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPost, "/api/expenses", `{"name":"a","amount":100,"category":"Food","date":"2026-01-05","regNo":"11111111"}`)
	do(t, srv, http.MethodPost, "/api/expenses", `{"name":"b","amount":50,"category":"Food","date":"2026-01-06","regNo":"11111111"}`)
	do(t, srv, http.MethodPost, "/api/expenses", `{"name":"c","amount":30,"category":"Transport","date":"2026-02-01","regNo":"11111111"}`)

	rr := do(t, srv, http.MethodGet, "/api/summary/11111111", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	sum := decode[core.Summary](t, rr)
	if sum.TotalExpenses != 180 || len(sum.Categories) != 2 || sum.Categories[0].Value != 150 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if len(sum.Months) != 2 || sum.Months[0].Month != "2026-01" {
		t.Fatalf("months %+v", sum.Months)
	}

	if rr = do(t, srv, http.MethodGet, "/api/summary/99999999", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown student status=%d", rr.Code)
	}
}

func TestContact(t *testing.T) {
	srv, pub := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/contact", `{"name":"Asha","email":"asha@university.edu","message":"Hi"}`)
	if rr.Code != http.StatusOK || decode[messageResponse](t, rr).Message != "Message received" {
		t.Fatalf("contact: %d %s", rr.Code, rr.Body.String())
	}
	if pub.contacts != 1 {
		t.Fatalf("contact published %d times", pub.contacts)
	}

	rr = do(t, srv, http.MethodPost, "/api/contact", `{"name":"Asha","email":"not-an-email","message":"Hi"}`)
	if rr.Code != http.StatusBadRequest || !strings.Contains(decode[errorResponse](t, rr).Error, "email") {
		t.Fatalf("bad email: %d %s", rr.Code, rr.Body.String())
	}
}

func TestServerErrorsForwardMessage(t *testing.T) {
	srv := NewServer(Options{Store: brokenStore{Store: memory.New()}})
	rr := do(t, srv, http.MethodGet, "/api/expenses/11111111", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := decode[errorResponse](t, rr).Error; got != "connection reset by peer" {
		t.Fatalf("error=%q", got)
	}
}

func TestUnknownRouteAndCORS(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/nope", "")
	if rr.Code != http.StatusNotFound || decode[errorResponse](t, rr).Error == "" {
		t.Fatalf("unknown route: %d %s", rr.Code, rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/students/11111111", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Allow-Origin = %q", got)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID")
	}
}

func TestRecoverPanics(t *testing.T) {
	h := recoverPanics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
}
