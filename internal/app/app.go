package app

import (
	"context"
	"creative_learning_backend/internal/config"
	"creative_learning_backend/internal/content"
	"creative_learning_backend/internal/controller"
	"creative_learning_backend/internal/repository"
	"creative_learning_backend/internal/service"
	"creative_learning_backend/pkg/configwatcher"
	"creative_learning_backend/pkg/database"
	"creative_learning_backend/pkg/logger"
	"creative_learning_backend/pkg/monitoring"
	"creative_learning_backend/pkg/security"
	"creative_learning_backend/pkg/tracing"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// 会话在 redis 中保留一周
const conversationTTL = 7 * 24 * time.Hour

type App struct {
	Config *config.Config
	Router *gin.Engine
	Redis  *redis.Client

	tracer          *sdktrace.TracerProvider
	services        *services
	configMu        sync.Mutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	learner       *repository.LearnerRepository
	conversations repository.ConversationStore
	metricsCache  repository.MetricsCache
}

type services struct {
	ai        *service.AIService
	image     *service.ImageService
	relay     *service.RelayService
	dashboard *service.DashboardService
	assistant *service.AssistantService
}

type controllers struct {
	relay        *controller.RelayController
	image        *controller.ImageController
	dashboard    *controller.DashboardController
	conversation *controller.ConversationController
	assistant    *controller.AssistantController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configMu.Lock()
	defer a.configMu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	a.configMu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.Config = cfg
	a.configMu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(cfg *config.Config, rdb *redis.Client) *repositories {
	repos := &repositories{learner: repository.NewLearnerRepository()}

	if cfg.Cache.Driver == config.CacheDriverRedis {
		repos.conversations = repository.NewRedisConversationRepository(rdb, conversationTTL)
		repos.metricsCache = repository.NewRedisMetricsCache(rdb, cfg.Cache.MetricsTTL())
		return repos
	}

	repos.conversations = repository.NewMemoryConversationRepository()
	repos.metricsCache = repository.NewMemoryMetricsCache(cfg.Cache.MetricsTTL(), cfg.Cache.MaxEntries, time.Now)
	return repos
}

func (a *App) initServices(repos *repositories, cfg *config.Config, table *content.Table) *services {
	aiService := service.NewAIService(cfg.AI)
	imageService := service.NewImageService(cfg.Image)
	dashboardService := service.NewDashboardService(repos.learner, repos.metricsCache, table)

	a.RegisterConfigCallback(func(c *config.Config) {
		aiService.UpdateConfig(c.AI)
		imageService.UpdateConfig(c.Image)
	})

	return &services{
		ai:        aiService,
		image:     imageService,
		relay:     service.NewRelayService(aiService, table),
		dashboard: dashboardService,
		assistant: service.NewAssistantService(aiService, repos.conversations, table, dashboardService),
	}
}

func (a *App) initControllers(s *services, cfg *config.Config, table *content.Table, rdb *redis.Client) *controllers {
	return &controllers{
		relay:        controller.NewRelayController(s.relay, table),
		image:        controller.NewImageController(s.image),
		dashboard:    controller.NewDashboardController(s.dashboard),
		conversation: controller.NewConversationController(s.assistant),
		assistant:    controller.NewAssistantController(s.assistant),
		health:       controller.NewHealthController(s.ai, s.image, cfg.Cache.Driver, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// NewApp 装配整个服务，依赖初始化失败时返回错误，由调用方决定退出
func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	app := &App{Config: cfg}

	if cfg.Cache.Driver == config.CacheDriverRedis {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Error("Failed to initialize redis", zap.Error(err))
			return nil, err
		}
		app.Redis = rdb
	}

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
			return nil, err
		}
		app.tracer = tp
	}

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	table := content.Default()
	repos := app.initRepositories(cfg, app.Redis)
	app.services = app.initServices(repos, cfg, table)
	controllers := app.initControllers(app.services, cfg, table, app.Redis)

	router := gin.Default()
	router.HandleMethodNotAllowed = true
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)

	return app, nil
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.Config.Server.WatchConfig && a.Config.File != "" {
		go func() {
			if err := configwatcher.WatchConfig(ctx, a.Config.File, a.applyConfig); err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
