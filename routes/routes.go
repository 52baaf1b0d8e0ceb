package routes

import (
	"net/http"

	"grievance/handler"
	"grievance/metrics"
	"grievance/middleware"
	"grievance/models"
	"grievance/service"

	"github.com/gorilla/mux"
)

// Dependencies bundles what the router needs
type Dependencies struct {
	ComplaintService  *service.ComplaintService
	EscalationService *service.EscalationService
	WorkloadBalancer  *service.WorkloadBalancer
	Sweeper           handler.Sweeper
	Metrics           *metrics.Recorder
	JWTSecret         string
	AdminToken        string
}

// SetupRoutes configures all API routes
func SetupRoutes(deps Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Initialize handlers
	complaintHandler := handler.NewComplaintHandler(deps.ComplaintService, deps.WorkloadBalancer)
	escalationHandler := handler.NewEscalationHandler(deps.EscalationService, deps.Sweeper)
	publicHandler := handler.NewPublicHandler(deps.ComplaintService)

	authMiddleware := middleware.NewAuthMiddleware(deps.JWTSecret)
	citizen := middleware.RequireRole(models.RoleCitizen)
	officer := middleware.RequireRole(models.RoleOfficer)
	admin := middleware.RequireRole(models.RoleAdmin)
	staff := middleware.RequireRole(models.RoleOfficer, models.RoleAdmin)

	protect := func(role func(http.Handler) http.Handler, h http.HandlerFunc) http.Handler {
		if role == nil {
			return authMiddleware.RequireAuth(h)
		}
		return authMiddleware.RequireAuth(role(h))
	}

	// API v1 routes
	apiV1 := router.PathPrefix("/api/v1").Subrouter()

	complaints := apiV1.PathPrefix("/complaints").Subrouter()

	// Fixed paths are registered before /{id} so they are not captured as ids
	complaints.Handle("", protect(citizen, complaintHandler.FileComplaint)).Methods("POST")
	complaints.Handle("", protect(admin, complaintHandler.ListAllComplaints)).Methods("GET")
	complaints.Handle("/my", protect(citizen, complaintHandler.ListMyComplaints)).Methods("GET")
	complaints.Handle("/officer/my", protect(officer, complaintHandler.ListOfficerComplaints)).Methods("GET")
	complaints.Handle("/officer/ratings", protect(officer, complaintHandler.OfficerRatings)).Methods("GET")
	complaints.Handle("/statistics", protect(admin, complaintHandler.Statistics)).Methods("GET")
	complaints.Handle("/analytics", protect(admin, complaintHandler.Analytics)).Methods("GET")
	complaints.Handle("/officers/workload", protect(admin, complaintHandler.OfficerWorkload)).Methods("GET")

	complaints.Handle("/{id:[0-9]+}", protect(nil, complaintHandler.GetComplaint)).Methods("GET")
	complaints.Handle("/{id:[0-9]+}/assign", protect(admin, complaintHandler.AssignOfficer)).Methods("PUT")
	complaints.Handle("/{id:[0-9]+}/status", protect(staff, complaintHandler.UpdateStatus)).Methods("PUT")
	complaints.Handle("/{id:[0-9]+}/proof", protect(officer, complaintHandler.UploadProof)).Methods("POST")
	complaints.Handle("/{id:[0-9]+}/duplicates", protect(admin, complaintHandler.FindDuplicates)).Methods("GET")
	complaints.Handle("/{id:[0-9]+}/validate", protect(admin, complaintHandler.ValidateComplaint)).Methods("POST")
	complaints.Handle("/{id:[0-9]+}/reject", protect(admin, complaintHandler.RejectComplaint)).Methods("POST")
	complaints.Handle("/{id:[0-9]+}/rate", protect(citizen, complaintHandler.RateComplaint)).Methods("POST")
	complaints.Handle("/{id:[0-9]+}/satisfaction", protect(citizen, complaintHandler.MarkSatisfied)).Methods("POST")
	complaints.Handle("/{id:[0-9]+}/reopen", protect(citizen, complaintHandler.ReopenComplaint)).Methods("POST")
	complaints.Handle("/{id:[0-9]+}/escalate", protect(admin, escalationHandler.Escalate)).Methods("POST")
	complaints.Handle("/{id:[0-9]+}/escalation-history", protect(nil, escalationHandler.History)).Methods("GET")

	// Escalation routes
	escalations := apiV1.PathPrefix("/escalations").Subrouter()
	escalations.Handle("/unresolved", protect(admin, escalationHandler.Unresolved)).Methods("GET")
	escalations.Handle("/{id:[0-9]+}/resolve", protect(admin, escalationHandler.Resolve)).Methods("POST")

	// Operator trigger (static token, separate from caller JWTs)
	escalations.Handle("/sweep", middleware.RequireAdminToken(deps.AdminToken)(http.HandlerFunc(escalationHandler.Sweep))).Methods("POST")

	// Public read-only case page by complaint_number (shareable; complaint_id never exposed)
	apiV1.HandleFunc("/public/complaints/by-number/{complaint_number}", publicHandler.GetPublicComplaintByNumber).Methods("GET")

	// Prometheus metrics
	router.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}

// WithCORS wraps the router with permissive CORS headers and preflight handling
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Token")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
