package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/practice-app/clients"
	"github.com/yeremiapane/practice-app/config"
	"github.com/yeremiapane/practice-app/database"
	"github.com/yeremiapane/practice-app/pdf"
	"github.com/yeremiapane/practice-app/repository"
	"github.com/yeremiapane/practice-app/router"
	"github.com/yeremiapane/practice-app/scheduler"
	"github.com/yeremiapane/practice-app/services"
	"github.com/yeremiapane/practice-app/utils"
)

// Document service: certificate workflow.
func main() {
	cfg := config.Load("8081")
	utils.InitLogger()
	utils.SetJWTSecret(cfg.JWTSecret)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.MigrateDocuments(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}

	certificates := repository.NewCertificateRepository(db)
	practice := clients.NewPracticeClient(cfg.PracticeServiceBaseURL, cfg.EnrichmentTimeout)
	renderer := pdf.NewCertificateRenderer(cfg.CertificateStorageDir)
	workflow := services.NewCertificateWorkflow(certificates, practice, renderer, cfg.EnrichmentTimeout)

	jobs := scheduler.New()
	if err := jobs.Add("enrich-certificates", cfg.EnrichmentSchedule, 10*time.Minute, workflow.EnrichPending); err != nil {
		utils.ErrorLogger.Fatalf("Failed to schedule jobs: %v", err)
	}
	jobs.Start()
	defer jobs.Stop()

	r := router.SetupDocumentRouter(cfg, router.DocumentDeps{Workflow: workflow})
	router.Serve(cfg.Port, r)
}
