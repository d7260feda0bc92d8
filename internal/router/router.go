package router

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/facility-report-api/internal/handler"
	"github.com/noah-isme/facility-report-api/internal/middleware"
	"github.com/noah-isme/facility-report-api/internal/models"
)

// Handlers bundles every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth    *handler.AuthHandler
	Reports *handler.ReportHandler
	Tasks   *handler.TaskHandler
	Stats   *handler.StatsHandler
	Admin   *handler.AdminHandler
	Metrics *handler.MetricsHandler
}

// Register mounts the operational endpoints at the root and the API under prefix.
func Register(r *gin.Engine, prefix string, tokens middleware.TokenValidator, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/logout", h.Auth.Logout)

	protected := api.Group("")
	protected.Use(middleware.JWT(tokens))
	protected.GET("/auth/me", h.Auth.Me)

	resident := middleware.RequireRoles(models.RoleResident)
	staff := middleware.RequireRoles(models.RoleStaff)
	technician := middleware.RequireRoles(models.RoleTechnician)
	worker := middleware.RequireRoles(models.RoleTechnician, models.RoleStaff)

	reports := protected.Group("/reports")
	reports.POST("", resident, h.Reports.Create)
	reports.GET("", middleware.RequireRoles(models.RoleResident, models.RoleStaff), h.Reports.List)
	reports.GET("/:id/events", h.Reports.Events)
	reports.POST("/:id/receive", staff, h.Reports.Receive)
	reports.POST("/:id/reject", staff, h.Reports.Reject)
	reports.POST("/:id/assign", staff, h.Reports.Assign)
	reports.POST("/:id/start", worker, h.Reports.Start)
	reports.POST("/:id/resolve", worker, h.Reports.Resolve)

	protected.POST("/uploads/photo", resident, h.Admin.PresignPhoto)
	protected.GET("/technicians", staff, h.Admin.Technicians)
	protected.GET("/technician/tasks", technician, h.Tasks.List)
	protected.GET("/stats", staff, h.Stats.Summary)

	admin := protected.Group("/admin", staff)
	admin.GET("/durations", h.Stats.Durations)
	admin.GET("/durations/export", h.Stats.ExportDurations)
	admin.GET("/replica-check", h.Admin.ReplicaCheck)
}
