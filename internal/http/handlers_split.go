package http

import (
	"net/http"

	"studentspend/internal/core"
	"studentspend/internal/services"
)

type participantRequest struct {
	RegNo flexString `json:"regNo" validate:"required"`
	Name  string     `json:"name"`
}

// createSplitRequest ignores any paid or amount fields a client sends for
// participants; the server allocates shares itself.
type createSplitRequest struct {
	Name         string               `json:"name" validate:"required"`
	TotalAmount  float64              `json:"totalAmount" validate:"gt=0"`
	CreatedBy    flexString           `json:"createdBy" validate:"required"`
	Participants []participantRequest `json:"participants" validate:"required,min=1,dive"`
}

func (s *Server) handleListSplits(w http.ResponseWriter, r *http.Request) {
	splits, err := s.splits.List(r.Context(), r.PathValue("regNo"))
	if err != nil {
		fail(w, r, err, msgStudentNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, splits)
}

func (s *Server) handleCreateSplit(w http.ResponseWriter, r *http.Request) {
	var req createSplitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err, msgStudentNotFound)
		return
	}

	in := services.CreateSplitInput{
		Name:         req.Name,
		TotalAmount:  req.TotalAmount,
		CreatedBy:    req.CreatedBy.String(),
		Participants: make([]core.Student, 0, len(req.Participants)),
	}
	for _, p := range req.Participants {
		in.Participants = append(in.Participants, core.Student{RegNo: p.RegNo.String(), Name: p.Name})
	}

	bill, err := s.splits.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err, msgStudentNotFound)
		return
	}
	writeJSON(w, r, http.StatusCreated, bill)
}
