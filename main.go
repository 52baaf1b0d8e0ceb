package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grievance/config"
	"grievance/metrics"
	"grievance/repository"
	"grievance/routes"
	"grievance/schema"
	"grievance/service"
	"grievance/utils"
	"grievance/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Load configuration
	cfg := config.LoadConfig()
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	if cfg.Auth.AdminToken == "" {
		log.Println("Warning: ADMIN_TOKEN not set, manual sweep endpoint will refuse all requests")
	}

	db, _, err := schema.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	clock := utils.SystemClock{}
	recorder := metrics.NewRecorder()
	store := repository.NewSQLStore(db)

	selector, err := service.AdminSelectorByName(cfg.Escalation.AdminPolicy)
	if err != nil {
		log.Fatalf("Invalid escalation admin policy: %v", err)
	}

	// Initialize services
	complaintService := service.NewComplaintService(store, clock, recorder)
	escalationService := service.NewEscalationService(store, selector, clock, recorder)
	balancer := service.NewWorkloadBalancer(store)

	scanner, err := worker.NewEscalationScanner(escalationService.SweepOverdue, clock, cfg.Escalation.Schedule, cfg.Escalation.RunOnStart)
	if err != nil {
		log.Fatalf("Failed to create escalation scanner: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Escalation.Enabled {
		scanner.Start(ctx)
	} else {
		log.Println("Escalation scanner DISABLED")
	}

	// Setup routes
	router := routes.SetupRoutes(routes.Dependencies{
		ComplaintService:  complaintService,
		EscalationService: escalationService,
		WorkloadBalancer:  balancer,
		Sweeper:           scanner,
		Metrics:           recorder,
		JWTSecret:         cfg.Auth.JWTSecret,
		AdminToken:        cfg.Auth.AdminToken,
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.WithCORS(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("Shutting down")

	scanner.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
