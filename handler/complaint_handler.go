package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"grievance/middleware"
	"grievance/models"
	"grievance/service"

	"github.com/gorilla/mux"
)

// ComplaintHandler handles HTTP requests for complaints
type ComplaintHandler struct {
	service  *service.ComplaintService
	balancer *service.WorkloadBalancer
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(svc *service.ComplaintService, balancer *service.WorkloadBalancer) *ComplaintHandler {
	return &ComplaintHandler{service: svc, balancer: balancer}
}

// FileComplaint handles POST /api/v1/complaints
func (h *ComplaintHandler) FileComplaint(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var req models.FileComplaintRequest
	if !decodeBody(w, r, &req) {
		return
	}

	complaint, err := h.service.FileComplaint(r.Context(), caller.Email, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, models.NewComplaintResponse(complaint))
}

// GetComplaint handles GET /api/v1/complaints/{id}
func (h *ComplaintHandler) GetComplaint(w http.ResponseWriter, r *http.Request) {
	complaintID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	complaint, err := h.service.ViewComplaint(r.Context(), complaintID, viewerOf(caller))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewComplaintResponse(complaint))
}

// ListMyComplaints handles GET /api/v1/complaints/my
func (h *ComplaintHandler) ListMyComplaints(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	complaints, err := h.service.ListMyComplaints(r.Context(), caller.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewComplaintResponses(complaints))
}

// ListAllComplaints handles GET /api/v1/complaints
func (h *ComplaintHandler) ListAllComplaints(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.service.ListAllComplaints(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewComplaintResponses(complaints))
}

// ListOfficerComplaints handles GET /api/v1/complaints/officer/my
func (h *ComplaintHandler) ListOfficerComplaints(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	complaints, err := h.service.ListOfficerComplaints(r.Context(), caller.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewComplaintResponses(complaints))
}

// Statistics handles GET /api/v1/complaints/statistics
func (h *ComplaintHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// Analytics handles GET /api/v1/complaints/analytics
func (h *ComplaintHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.service.Analytics(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, analytics)
}

// OfficerWorkload handles GET /api/v1/complaints/officers/workload
func (h *ComplaintHandler) OfficerWorkload(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.balancer.OfficersWithWorkload(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ranking)
}

// OfficerRatings handles GET /api/v1/complaints/officer/ratings
func (h *ComplaintHandler) OfficerRatings(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	stats, err := h.service.OfficerRatings(r.Context(), caller.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// AssignOfficer handles PUT /api/v1/complaints/{id}/assign
func (h *ComplaintHandler) AssignOfficer(w http.ResponseWriter, r *http.Request) {
	complaintID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.AssignOfficerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	priority := ""
	if req.Priority != nil {
		priority = *req.Priority
	}
	var deadline *time.Time
	if req.Deadline != nil && strings.TrimSpace(*req.Deadline) != "" {
		d, err := parseDeadline(*req.Deadline)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		deadline = &d
	}

	complaint, err := h.service.AssignOfficer(r.Context(), complaintID, req.OfficerID, priority, deadline)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewComplaintResponse(complaint))
}

// UpdateStatus handles PUT /api/v1/complaints/{id}/status
func (h *ComplaintHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	complaintID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.UpdateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	complaint, err := h.service.UpdateStatus(r.Context(), complaintID, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewComplaintResponse(complaint))
}

// UploadProof handles POST /api/v1/complaints/{id}/proof
func (h *ComplaintHandler) UploadProof(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	complaintID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.UploadProofRequest
	if !decodeBody(w, r, &req) {
		return
	}
	complaint, err := h.service.UploadProof(r.Context(), complaintID, caller.Email, req.ProofRef)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewComplaintResponse(complaint))
}

// FindDuplicates handles GET /api/v1/complaints/{id}/duplicates
func (h *ComplaintHandler) FindDuplicates(w http.ResponseWriter, r *http.Request) {
	complaintID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	duplicates, err := h.service.FindDuplicates(r.Context(), complaintID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewComplaintResponses(duplicates))
}

// ValidateComplaint handles POST /api/v1/complaints/{id}/validate
func (h *ComplaintHandler) ValidateComplaint(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	complaintID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	complaint, err := h.service.ValidateComplaint(r.Context(), complaintID, caller.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewComplaintResponse(complaint))
}

// RejectComplaint handles POST /api/v1/complaints/{id}/reject
func (h *ComplaintHandler) RejectComplaint(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	complaintID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.RejectComplaintRequest
	if !decodeBody(w, r, &req) {
		return
	}
	complaint, err := h.service.RejectComplaint(r.Context(), complaintID, caller.Email, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewComplaintResponse(complaint))
}

// RateComplaint handles POST /api/v1/complaints/{id}/rate
func (h *ComplaintHandler) RateComplaint(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	complaintID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.RateComplaintRequest
	if !decodeBody(w, r, &req) {
		return
	}
	complaint, err := h.service.RateComplaint(r.Context(), complaintID, caller.Email, req.Rating, req.Feedback)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewComplaintResponse(complaint))
}

// MarkSatisfied handles POST /api/v1/complaints/{id}/satisfaction
func (h *ComplaintHandler) MarkSatisfied(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	complaintID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.SatisfactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Satisfied == nil {
		respondWithError(w, http.StatusBadRequest, "Bad Request", "satisfied is required")
		return
	}
	complaint, err := h.service.MarkSatisfied(r.Context(), complaintID, caller.Email, *req.Satisfied)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewComplaintResponse(complaint))
}

// ReopenComplaint handles POST /api/v1/complaints/{id}/reopen
func (h *ComplaintHandler) ReopenComplaint(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	complaintID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.ReopenComplaintRequest
	if !decodeBody(w, r, &req) {
		return
	}
	complaint, err := h.service.ReopenComplaint(r.Context(), complaintID, caller.Email, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewComplaintResponse(complaint))
}

// deadlineLayouts are tried in order; inputs without a zone are read as UTC.
var deadlineLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

func parseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid deadline %q: expected RFC3339 or YYYY-MM-DDTHH:MM:SS", s)
}

func callerFromRequest(w http.ResponseWriter, r *http.Request) (middleware.Caller, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Caller not found in context")
	}
	return caller, ok
}

func viewerOf(caller middleware.Caller) service.Viewer {
	return service.Viewer{Email: caller.Email, Role: caller.Role}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Bad Request", "Invalid "+name)
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Bad Request", "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeServiceError maps a service failure to its HTTP status
func writeServiceError(w http.ResponseWriter, err error) {
	var domainErr *service.DomainError
	if !errors.As(err, &domainErr) {
		log.Printf("[HTTP] internal error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error", "Unexpected error")
		return
	}

	switch domainErr.Kind {
	case service.KindNotFound:
		respondWithError(w, http.StatusNotFound, "Not Found", domainErr.Error())
	case service.KindInvalidState:
		respondWithError(w, http.StatusConflict, "Conflict", domainErr.Error())
	case service.KindForbidden:
		respondWithError(w, http.StatusForbidden, "Forbidden", domainErr.Error())
	case service.KindValidation:
		respondWithError(w, http.StatusBadRequest, "Bad Request", domainErr.Error())
	case service.KindSystemFailure:
		log.Printf("[HTTP] system failure: %v", err)
		respondWithError(w, http.StatusServiceUnavailable, "Service Unavailable", domainErr.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error", domainErr.Error())
	}
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondWithError sends an error response
func respondWithError(w http.ResponseWriter, statusCode int, errorType, message string) {
	response := models.ErrorResponse{
		Error:   errorType,
		Message: message,
		Code:    statusCode,
	}
	respondWithJSON(w, statusCode, response)
}
