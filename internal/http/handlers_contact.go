package http

import (
	"net/http"

	"studentspend/internal/core"
)

type contactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required"`
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, err, msgStudentNotFound)
		return
	}
	ack, err := s.contact.Submit(r.Context(), core.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	})
	if err != nil {
		fail(w, r, err, msgStudentNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, messageResponse{Message: ack})
}
