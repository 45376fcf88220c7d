package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exam_sync_backend/internal/config"
	"exam_sync_backend/internal/controller"
	"exam_sync_backend/internal/repository"
	"exam_sync_backend/internal/service"
	"exam_sync_backend/pkg/database"
	"exam_sync_backend/pkg/logger"
	"exam_sync_backend/pkg/monitoring"
	"exam_sync_backend/pkg/security"
	"exam_sync_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	services *services
}

type repositories struct {
	user     *repository.UserRepository
	exam     *repository.ExamRepository
	question *repository.QuestionRepository
	attempt  *repository.AttemptRepository
}

type services struct {
	auth    *service.AuthService
	catalog *service.CatalogService
	attempt *service.AttemptService
	exam    *service.ExamService
	peer    *service.PeerService
	admin   *service.AdminService
	archive *service.ArchiveService
	sync    *service.SyncService
}

type controllers struct {
	auth    *controller.AuthController
	sync    *controller.SyncController
	exam    *controller.ExamController
	attempt *controller.AttemptController
	admin   *controller.AdminController
	health  *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		exam:     repository.NewExamRepository(db),
		question: repository.NewQuestionRepository(db),
		attempt:  repository.NewAttemptRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.user, cfg)
	s.catalog = service.NewCatalogService(repos.exam, repos.question, db)
	s.attempt = service.NewAttemptService(repos.attempt)
	s.exam = service.NewExamService(repos.exam, repos.question, repos.attempt)
	s.peer = service.NewPeerService(repos.attempt, rdb)
	s.admin = service.NewAdminService(repos.question)

	archive, err := service.NewArchiveService(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize archive storage", zap.Error(err))
	}
	s.archive = archive

	portal := service.NewPortalClient(&cfg.Portal)
	s.sync = service.NewSyncService(portal, s.catalog, s.attempt, s.archive, repos.user, rdb)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:    controller.NewAuthController(s.auth),
		sync:    controller.NewSyncController(s.sync),
		exam:    controller.NewExamController(s.exam, s.peer),
		attempt: controller.NewAttemptController(s.exam),
		admin:   controller.NewAdminController(s.admin),
		health:  controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("exam-sync-backend", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	return app
}

// ApplyConfig 热更新可在线生效的配置项
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	if pc, ok := a.services.sync.Source.(*service.PortalClient); ok {
		pc.BaseURL = cfg.Portal.BaseURL
	}
	logger.Log.Info("Config reloaded", zap.String("portal_base_url", cfg.Portal.BaseURL))
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
