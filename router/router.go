package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yeremiapane/practice-app/config"
	"github.com/yeremiapane/practice-app/controllers"
	"github.com/yeremiapane/practice-app/middlewares"
	"github.com/yeremiapane/practice-app/models"
	"github.com/yeremiapane/practice-app/services"
)

// PracticeDeps are the services behind the practice API.
type PracticeDeps struct {
	Ledger    *services.HourLedger
	Lifecycle *services.PlacementLifecycle
}

// DocumentDeps are the services behind the document API.
type DocumentDeps struct {
	Workflow *services.CertificateWorkflow
}

func newEngine(cfg *config.Config) (*gin.Engine, *gin.RouterGroup) {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.AllowedOrigin))
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.MetricsMiddleware())
	r.Use(middlewares.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitPerSecond).RateLimit())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return r, api
}

// SetupPracticeRouter builds the practice service engine.
func SetupPracticeRouter(cfg *config.Config, deps PracticeDeps) *gin.Engine {
	r, api := newEngine(cfg)

	hourLogCtrl := controllers.NewHourLogController(deps.Ledger)
	placementCtrl := controllers.NewPlacementController(deps.Lifecycle)

	auth := api.Group("/")
	auth.Use(middlewares.AuthMiddleware())

	// ----------------------------------------------------------------
	//                      HOUR LOGS
	// ----------------------------------------------------------------
	hourLogs := auth.Group("/hour-logs")
	{
		hourLogs.POST("", middlewares.RequireRoles(models.RoleStudent), hourLogCtrl.CreateHourLog)
		hourLogs.GET("", hourLogCtrl.ListHourLogs)
		hourLogs.GET("/stats/:placementId", hourLogCtrl.GetStats)
		hourLogs.GET("/:id", hourLogCtrl.GetHourLog)
		hourLogs.PATCH("/:id", middlewares.RequireRoles(models.RoleStudent), hourLogCtrl.UpdateHourLog)
		hourLogs.DELETE("/:id", middlewares.RequireRoles(models.RoleStudent), hourLogCtrl.DeleteHourLog)
		hourLogs.PATCH("/:id/review",
			middlewares.RequireRoles(models.RoleProfessor, models.RoleCompany),
			hourLogCtrl.ReviewHourLog)
	}

	// ----------------------------------------------------------------
	//                      PLACEMENTS
	// ----------------------------------------------------------------
	placements := auth.Group("/placements")
	{
		placements.POST("",
			middlewares.RequireRoles(models.RoleCoordinator, models.RoleAdmin),
			placementCtrl.CreatePlacement)
		placements.GET("/:id", placementCtrl.GetPlacement)
		placements.PATCH("/:id", placementCtrl.UpdatePlacement)
		placements.PATCH("/:id/assign-professor",
			middlewares.RequireRoles(models.RoleCoordinator, models.RoleAdmin, models.RoleCompany),
			placementCtrl.AssignProfessor)
		placements.PATCH("/:id/assignment",
			middlewares.RequireRoles(models.RoleProfessor),
			placementCtrl.RespondAssignment)
		placements.POST("/:id/request-certificate",
			middlewares.RequireRoles(models.RoleStudent, models.RoleCoordinator, models.RoleAdmin),
			placementCtrl.RequestCertificate)
	}

	internal := auth.Group("/internal")
	internal.Use(middlewares.RequireRoles(models.RoleService, models.RoleCoordinator, models.RoleAdmin))
	{
		internal.GET("/placements/:id/summary", placementCtrl.GetSummary)
	}

	return r
}

// SetupDocumentRouter builds the document service engine.
func SetupDocumentRouter(cfg *config.Config, deps DocumentDeps) *gin.Engine {
	r, api := newEngine(cfg)

	certCtrl := controllers.NewCertificateController(deps.Workflow)
	deciders := middlewares.RequireRoles(models.RoleProfessor, models.RoleCoordinator, models.RoleAdmin)

	certs := api.Group("/certificates")
	certs.Use(middlewares.AuthMiddleware())
	{
		certs.POST("/generate",
			middlewares.RequireRoles(models.RoleService, models.RoleCoordinator, models.RoleAdmin),
			certCtrl.GenerateCertificate)
		certs.POST("/request",
			middlewares.NewStrictRateLimiter(),
			middlewares.RequireRoles(models.RoleStudent),
			certCtrl.RequestCertificate)

		certs.GET("/pending", deciders, certCtrl.GetPending)
		certs.GET("/placement/:placementId", certCtrl.GetByPlacement)
		certs.GET("/student/:studentId", certCtrl.GetByStudent)
		certs.GET("/:id", certCtrl.GetCertificate)
		certs.GET("/:id/download", certCtrl.DownloadCertificate)

		certs.PATCH("/:id/approve", deciders,
			middlewares.CertificateAuditLogger("approve"), certCtrl.ApproveCertificate)
		certs.PATCH("/:id/reject", deciders,
			middlewares.CertificateAuditLogger("reject"), certCtrl.RejectCertificate)
		certs.PATCH("/:id/revoke", middlewares.RequireRoles(models.RoleAdmin),
			middlewares.CertificateAuditLogger("revoke"), certCtrl.RevokeCertificate)
	}

	return r
}
