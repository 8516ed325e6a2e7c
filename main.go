package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/practice-app/clients"
	"github.com/yeremiapane/practice-app/config"
	"github.com/yeremiapane/practice-app/database"
	"github.com/yeremiapane/practice-app/repository"
	"github.com/yeremiapane/practice-app/router"
	"github.com/yeremiapane/practice-app/scheduler"
	"github.com/yeremiapane/practice-app/services"
	"github.com/yeremiapane/practice-app/utils"
)

// Practice service: hour ledger and placement lifecycle.
func main() {
	cfg := config.Load("8080")
	utils.InitLogger()
	utils.SetJWTSecret(cfg.JWTSecret)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.MigratePractice(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}

	placements := repository.NewPlacementRepository(db)
	hourLogs := repository.NewHourLogRepository(db)
	directory := repository.NewUserDirectory(db)
	catalog := repository.NewPracticeCatalog(db)

	documents := clients.NewDocumentClient(cfg.DocumentServiceBaseURL, cfg.CertificateRequestTimeout)
	trigger := services.NewCompletionTrigger(documents, directory, catalog)
	lifecycle := services.NewPlacementLifecycle(placements, hourLogs, directory, catalog, trigger, cfg.AutoCompleteOnHours)
	ledger := services.NewHourLedger(hourLogs, placements, lifecycle)

	jobs := scheduler.New()
	if err := jobs.Add("reconcile-completed-hours", cfg.ReconcileSchedule, 5*time.Minute, lifecycle.ReconcileCompletedHours); err != nil {
		utils.ErrorLogger.Fatalf("Failed to schedule jobs: %v", err)
	}
	jobs.Start()
	defer jobs.Stop()

	r := router.SetupPracticeRouter(cfg, router.PracticeDeps{Ledger: ledger, Lifecycle: lifecycle})
	router.Serve(cfg.Port, r)
}
