package handler

import (
	"net/http"
	"time"

	"grievance/service"

	"github.com/gorilla/mux"
)

// PublicHandler serves read-only public case data. No auth; whitelisted fields only; no PII.
type PublicHandler struct {
	service *service.ComplaintService
}

// NewPublicHandler creates a public handler
func NewPublicHandler(svc *service.ComplaintService) *PublicHandler {
	return &PublicHandler{service: svc}
}

// GetPublicComplaintByNumber handles GET /api/v1/public/complaints/by-number/{complaint_number}.
// complaint_id, citizen, officer and GPS are never exposed.
func (h *PublicHandler) GetPublicComplaintByNumber(w http.ResponseWriter, r *http.Request) {
	complaint, err := h.service.GetComplaintByNumber(r.Context(), mux.Vars(r)["complaint_number"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := publicComplaintResponse{
		ComplaintNumber: complaint.ComplaintNumber,
		Department:      complaint.Department,
		Status:          string(complaint.Status),
		Priority:        string(complaint.Priority),
		Escalated:       complaint.Escalated,
		CreatedAt:       complaint.CreatedAt.Format(time.RFC3339),
	}
	if complaint.Zone.Valid {
		resp.Zone = complaint.Zone.String
	}
	if complaint.Deadline.Valid {
		resp.Deadline = complaint.Deadline.Time.Format(time.RFC3339)
	}
	if complaint.ResolvedAt.Valid {
		resp.ResolvedAt = complaint.ResolvedAt.Time.Format(time.RFC3339)
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// publicComplaintResponse: whitelist only
type publicComplaintResponse struct {
	ComplaintNumber string `json:"complaint_number"`
	Department      string `json:"department"`
	Zone            string `json:"zone,omitempty"`
	Status          string `json:"status"`
	Priority        string `json:"priority"`
	Escalated       bool   `json:"escalated"`
	Deadline        string `json:"deadline,omitempty"`
	ResolvedAt      string `json:"resolved_at,omitempty"`
	CreatedAt       string `json:"created_at"`
}
