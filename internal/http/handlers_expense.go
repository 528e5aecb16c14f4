package http

import (
	"net/http"

	"studentspend/internal/core"
)

type createExpenseRequest struct {
	Name     string     `json:"name" validate:"required"`
	Amount   *float64   `json:"amount" validate:"required"`
	Category string     `json:"category" validate:"required"`
	Date     core.Date  `json:"date"`
	RegNo    flexString `json:"regNo" validate:"required"`
}

type updateExpenseRequest struct {
	Name     *string        `json:"name"`
	Amount   *float64       `json:"amount"`
	Category *core.Category `json:"category"`
	Date     *core.Date     `json:"date"`
	RegNo    *flexString    `json:"regNo"`
}

func (req updateExpenseRequest) patch() core.ExpensePatch {
	p := core.ExpensePatch{
		Name:     req.Name,
		Amount:   req.Amount,
		Category: req.Category,
		Date:     req.Date,
	}
	if req.RegNo != nil {
		regNo := req.RegNo.String()
		p.RegNo = &regNo
	}
	return p
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.ledger.List(r.Context(), r.PathValue("regNo"))
	if err != nil {
		fail(w, r, err, msgStudentNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err, msgStudentNotFound)
		return
	}
	created, err := s.ledger.Create(r.Context(), core.Expense{
		Name:     req.Name,
		Amount:   *req.Amount,
		Category: core.Category(req.Category),
		Date:     req.Date,
		RegNo:    req.RegNo.String(),
	})
	if err != nil {
		fail(w, r, err, msgStudentNotFound)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req updateExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err, msgStudentNotFound)
		return
	}
	updated, err := s.ledger.Update(r.Context(), r.PathValue("id"), req.patch())
	if err != nil {
		fail(w, r, err, msgStudentNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Delete(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err, msgStudentNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, messageResponse{Message: "Expense deleted"})
}
