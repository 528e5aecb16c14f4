package http

import (
	"net/http"

	"studentspend/internal/core"
)

type loginRequest struct {
	RegNo flexString `json:"regNo" validate:"required"`
}

type loginResponse struct {
	Student core.Student `json:"student"`
}

type budgetRequest struct {
	Budget *core.Budget `json:"budget" validate:"required"`
}

type incomeRequest struct {
	Income *float64 `json:"income" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err, msgLoginNotFound)
		return
	}
	st, err := s.directory.Login(r.Context(), req.RegNo.String())
	if err != nil {
		fail(w, r, err, msgLoginNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, loginResponse{Student: st})
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	st, err := s.directory.Profile(r.Context(), r.PathValue("regNo"))
	if err != nil {
		fail(w, r, err, msgStudentNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err, msgStudentNotFound)
		return
	}
	st, err := s.directory.UpdateBudget(r.Context(), r.PathValue("regNo"), *req.Budget)
	if err != nil {
		fail(w, r, err, msgStudentNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err, msgStudentNotFound)
		return
	}
	st, err := s.directory.UpdateIncome(r.Context(), r.PathValue("regNo"), *req.Income)
	if err != nil {
		fail(w, r, err, msgStudentNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

// handleSearchStudents serves GET /api/students/search/{term}?exclude=regNo.
func (s *Server) handleSearchStudents(w http.ResponseWriter, r *http.Request) {
	found, err := s.directory.Search(r.Context(), r.PathValue("term"), r.URL.Query().Get("exclude"))
	if err != nil {
		fail(w, r, err, msgStudentNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, found)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.summary.Summary(r.Context(), r.PathValue("regNo"))
	if err != nil {
		fail(w, r, err, msgStudentNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, sum)
}
