package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/handler"
	"github.com/noah-isme/portal-colegio-api/internal/middleware"
	"github.com/noah-isme/portal-colegio-api/internal/service"
	"github.com/noah-isme/portal-colegio-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/portal-colegio-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/portal-colegio-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Auth       *handler.AuthHandler
	Catalog    *handler.CatalogHandler
	Procedures *handler.ProcedureHandler
	Students   *handler.StudentHandler
	Invoices   *handler.InvoiceHandler
	Programs   *handler.ProgramHandler
	Users      *handler.UserHandler
	Dashboard  *handler.DashboardHandler
	Audit      *handler.AuditHandler
	Reports    *handler.ReportHandler
	Metrics    *handler.MetricsHandler
}

// Options configures the engine.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Logger         *zap.Logger
	Tokens         middleware.TokenValidator
	Actors         middleware.ActorResolver
	MetricsService *service.MetricsService
}

// New builds the gin engine. Each route family is gated by the same
// requirement the client route table uses.
func New(opts Options, h Handlers) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.MetricsService, "/metrics"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.APIPrefix)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(opts.Tokens, opts.Logger), middleware.Require(authz.RequireAuthenticated))
	authed.GET("/auth/me", h.Auth.Me)
	authed.POST("/auth/logout", h.Auth.Logout)
	authed.POST("/auth/change-password", h.Auth.ChangePassword)
	authed.GET("/procedure-types", h.Catalog.ProcedureTypes)

	parent := api.Group("/parent")
	parent.Use(middleware.JWT(opts.Tokens, opts.Logger), middleware.Require(authz.RequireParent), middleware.ResolveActor(opts.Actors))
	parent.GET("/students", h.Students.Mine)
	parent.GET("/students/:id/invoices", h.Invoices.ListForStudent)
	parent.GET("/students/:id/procedures", h.Procedures.ListForStudent)
	parent.POST("/students/:id/procedures", h.Procedures.CreateForStudent)

	teacher := api.Group("/teacher")
	teacher.Use(middleware.JWT(opts.Tokens, opts.Logger), middleware.Require(authz.RequireTeacher), middleware.ResolveActor(opts.Actors))
	teacher.GET("/procedures", h.Procedures.List)
	teacher.GET("/procedures/:id", h.Procedures.Get)
	teacher.PATCH("/procedures/:id", h.Procedures.TeacherUpdate)

	admin := api.Group("/admin")
	admin.Use(middleware.JWT(opts.Tokens, opts.Logger), middleware.Require(authz.RequireAdmin), middleware.ResolveActor(opts.Actors))
	admin.GET("/dashboard", h.Dashboard.Admin)

	admin.GET("/students", h.Students.List)
	admin.POST("/students", h.Students.Create)
	admin.GET("/students/:id", h.Students.Get)
	admin.PUT("/students/:id", h.Students.Update)
	admin.DELETE("/students/:id", h.Students.Delete)
	admin.GET("/students/:id/parents", h.Students.Parents)
	admin.POST("/students/:id/parents/:parentId", h.Students.LinkParent)
	admin.DELETE("/students/:id/parents/:parentId", h.Students.UnlinkParent)

	admin.GET("/procedures", h.Procedures.List)
	admin.POST("/procedures", h.Procedures.Create)
	admin.GET("/procedures/:id", h.Procedures.Get)
	admin.PATCH("/procedures/:id", h.Procedures.Update)
	admin.DELETE("/procedures/:id", h.Procedures.Delete)

	admin.GET("/invoices", h.Invoices.List)
	admin.POST("/invoices", h.Invoices.Create)
	admin.GET("/invoices/:id", h.Invoices.Get)
	admin.PUT("/invoices/:id", h.Invoices.Update)
	admin.DELETE("/invoices/:id", h.Invoices.Delete)

	admin.GET("/programs", h.Programs.List)
	admin.POST("/programs", h.Programs.Create)
	admin.GET("/programs/:id", h.Programs.Get)
	admin.PUT("/programs/:id", h.Programs.Update)
	admin.DELETE("/programs/:id", h.Programs.Delete)

	admin.GET("/users", h.Users.List)
	admin.POST("/users", h.Users.Create)
	admin.GET("/users/:id", h.Users.Get)
	admin.PUT("/users/:id", h.Users.Update)
	admin.DELETE("/users/:id", h.Users.Delete)
	admin.GET("/roles", h.Users.Roles)
	admin.GET("/assignable-users", h.Users.Assignable)

	admin.GET("/audit-logs", h.Audit.List)
	admin.GET("/metrics", h.Metrics.Snapshot)
	admin.GET("/reports/:kind", h.Reports.Report)
	admin.GET("/export/:kind", middleware.RequirePermission(authz.PermissionReportsExport), h.Reports.Export)

	return r
}
