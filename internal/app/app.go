package app

import (
	"context"
	"exam_guardian_backend/internal/config"
	"exam_guardian_backend/internal/controller"
	"exam_guardian_backend/internal/repository"
	"exam_guardian_backend/internal/service"
	"exam_guardian_backend/pkg/database"
	"exam_guardian_backend/pkg/logger"
	"exam_guardian_backend/pkg/monitoring"
	"exam_guardian_backend/pkg/security"
	"exam_guardian_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 的 Config 会被配置监听协程整体替换，访问经过 mu
type App struct {
	mu              sync.RWMutex
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	exam        *repository.ExamRepository
	question    *repository.QuestionRepository
	submission  *repository.SubmissionRepository
	cheatingLog *repository.CheatingLogRepository
}

type services struct {
	auth        *service.AuthService
	storage     *service.StorageService
	exam        *service.ExamService
	question    *service.QuestionService
	submission  *service.SubmissionService
	ai          *service.AIService
	analytics   *service.AnalyticsService
	cheatingLog *service.CheatingLogService
}

type controllers struct {
	auth        *controller.AuthController
	exam        *controller.ExamController
	question    *controller.QuestionController
	submission  *controller.SubmissionController
	cheatingLog *controller.CheatingLogController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置文件热更新后由监听协程调用。
// 回调在锁外执行，避免回调里再访问App造成死锁
func (a *App) ApplyConfig(cfg *config.Config) {
	a.mu.Lock()
	a.Config = cfg
	callbacks := make([]func(*config.Config), len(a.configCallbacks))
	copy(callbacks, a.configCallbacks)
	a.mu.Unlock()

	for _, callback := range callbacks {
		callback(cfg)
	}
	logger.Log.Info("Config reloaded")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		exam:        repository.NewExamRepository(db),
		question:    repository.NewQuestionRepository(db),
		submission:  repository.NewSubmissionRepository(db),
		cheatingLog: repository.NewCheatingLogRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.exam = service.NewExamService(repos.exam)
	s.question = service.NewQuestionService(repos.question, repos.exam)
	s.submission = service.NewSubmissionService(repos.submission, repos.exam, repos.question, rdb)
	s.ai = service.NewAIService(cfg.AI)
	s.analytics = service.NewAnalyticsService(repos.exam, repos.submission, repos.question, s.ai, rdb)
	s.cheatingLog = service.NewCheatingLogService(repos.cheatingLog, repos.exam, s.storage)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth, a.Config.Server.Mode == "release"),
		exam:        controller.NewExamController(s.exam),
		question:    controller.NewQuestionController(s.question),
		submission:  controller.NewSubmissionController(s.submission, s.analytics),
		cheatingLog: controller.NewCheatingLogController(s.cheatingLog, s.auth),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 10000
	}
	windowMinutes := cfg.RateLimit.WindowMinutes
	if windowMinutes <= 0 {
		windowMinutes = 1
	}
	router.Use(security.RateLimiter(maxRequests, time.Duration(windowMinutes)*time.Minute))

	// 分布式追踪中间件
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
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db, rdb)

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		services.ai.Reload(newCfg.AI)
	})

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("exam-guardian", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
		router.Static("/api/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	a.mu.RLock()
	port := a.Config.Server.Port
	a.mu.RUnlock()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
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
