package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/tbsouza/academic-api/api/swagger"
	"github.com/tbsouza/academic-api/internal/handler"
	"github.com/tbsouza/academic-api/internal/middleware"
	"github.com/tbsouza/academic-api/internal/models"
	"github.com/tbsouza/academic-api/internal/repository"
	"github.com/tbsouza/academic-api/internal/service"
	"github.com/tbsouza/academic-api/pkg/cache"
	"github.com/tbsouza/academic-api/pkg/config"
	"github.com/tbsouza/academic-api/pkg/database"
	"github.com/tbsouza/academic-api/pkg/logger"
	corsmiddleware "github.com/tbsouza/academic-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tbsouza/academic-api/pkg/middleware/requestid"
)

// @title Academic Records API
// @version 1.0.0
// @description Enrollment and grading API with role-scoped access
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
		redisClient = nil
	}

	userRepo := repository.NewUserRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	moduleRepo := repository.NewModuleRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	cascadeRepo := repository.NewCascadeRepository(db)
	scopeRepo := repository.NewScopeRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	scopeSvc := service.NewScopeService(scopeRepo, logr)
	cascadeSvc := service.NewCascadeService(cascadeRepo, moduleRepo, studentRepo, logr)
	periodSvc := service.NewPeriodService(periodRepo, userRepo, scopeSvc, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, periodRepo, cascadeSvc, scopeSvc, nil, logr)
	moduleSvc := service.NewModuleService(moduleRepo, periodRepo, userRepo, cascadeSvc, scopeSvc, nil, logr)
	gradeSvc := service.NewGradeService(gradeRepo, enrollmentRepo, scopeSvc, nil, logr)
	userSvc := service.NewUserService(userRepo, nil, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheRepo, scopeSvc, cfg.Dashboard.CacheTTL, logr)
	exportSvc := service.NewExportService(moduleRepo, scopeSvc, nil, nil, logr)
	metricsSvc := service.NewMetricsService()

	authHandler := handler.NewAuthHandler(authSvc)
	periodHandler := handler.NewPeriodHandler(periodSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	moduleHandler := handler.NewModuleHandler(moduleSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	userHandler := handler.NewUserHandler(userSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/periods", periodHandler.List)
	authed.GET("/periods/:id", periodHandler.Get)
	authed.POST("/periods", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), periodHandler.Create)
	authed.PATCH("/periods/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), periodHandler.Update)
	authed.DELETE("/periods/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator), periodHandler.Delete)
	if cfg.Dashboard.Enabled {
		authed.GET("/periods/:id/dashboard", dashboardHandler.PeriodSummary)
	}

	authed.GET("/students", studentHandler.Search)
	authed.GET("/students/:id", studentHandler.Get)
	authed.POST("/students", studentHandler.Create)
	authed.PATCH("/students/:id", studentHandler.Update)
	authed.DELETE("/students/:id", studentHandler.Delete)
	authed.PUT("/students/:id/absences", gradeHandler.SetAbsences)

	authed.GET("/modules", moduleHandler.List)
	authed.GET("/modules/:id/roster", moduleHandler.Roster)
	authed.POST("/modules", moduleHandler.Create)
	authed.PATCH("/modules/:id", moduleHandler.Update)
	authed.DELETE("/modules/:id", moduleHandler.Delete)
	if cfg.Exports.Enabled {
		authed.GET("/modules/:id/export", exportHandler.GradeSheet)
	}

	authed.GET("/grades", gradeHandler.Get)
	authed.PATCH("/enrollments/:enrollmentId/grade", gradeHandler.Update)

	authed.GET("/users", middleware.RequireRoles(models.RoleAdmin), userHandler.List)
	authed.POST("/users", middleware.RequireRoles(models.RoleAdmin), userHandler.Create)
	authed.DELETE("/users/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
