package app

import (
	"context"
	"ctf_game_backend/internal/config"
	"ctf_game_backend/internal/controller"
	"ctf_game_backend/internal/repository"
	"ctf_game_backend/internal/service"
	"ctf_game_backend/internal/util"
	"ctf_game_backend/pkg/configwatcher"
	"ctf_game_backend/pkg/database"
	"ctf_game_backend/pkg/logger"
	"ctf_game_backend/pkg/monitoring"
	"ctf_game_backend/pkg/security"
	"ctf_game_backend/pkg/tracing"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const redisStateKeyPrefix = "ctf:"

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Catalog         *config.Catalog
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user  *repository.UserRepository
	state repository.StateStore
}

type services struct {
	auth        *service.AuthService
	user        *service.UserService
	storage     *service.StorageService
	game        *service.GameService
	challenge   *service.ChallengeService
	leaderboard *service.LeaderboardService
	admin       *service.AdminService
}

type controllers struct {
	auth        *controller.AuthController
	user        *controller.UserController
	game        *controller.GameController
	challenge   *controller.ChallengeController
	leaderboard *controller.LeaderboardController
	admin       *controller.AdminController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// newStateStore picks the persistence adapter for game progress.
func newStateStore(cfg *config.GameConfig, db *gorm.DB, rdb *redis.Client) (repository.StateStore, error) {
	switch cfg.StateBackend {
	case config.StateBackendMemory:
		return repository.NewMemoryStateStore(), nil
	case config.StateBackendRedis:
		if rdb == nil {
			return nil, errors.New("redis state backend selected but redis is not configured")
		}
		return repository.NewRedisStateStore(rdb, redisStateKeyPrefix), nil
	case config.StateBackendDatabase:
		return repository.NewGormStateStore(db), nil
	default:
		return nil, fmt.Errorf("unknown game state backend %q", cfg.StateBackend)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) (*repositories, error) {
	state, err := newStateStore(&a.Config.Game, db, rdb)
	if err != nil {
		return nil, err
	}
	return &repositories{
		user:  repository.NewUserRepository(db),
		state: state,
	}, nil
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	storage := service.NewStorageService(&cfg.Storage)
	game := service.NewGameService(repos.state, a.Catalog)
	challenge := service.NewChallengeService(game, cfg.Game)

	a.RegisterConfigCallback(func(newCfg *config.Config) {
		challenge.UpdateConfig(newCfg.Game)
	})

	return &services{
		auth:        service.NewAuthService(repos.user, cfg),
		user:        service.NewUserService(repos.user, storage),
		storage:     storage,
		game:        game,
		challenge:   challenge,
		leaderboard: service.NewLeaderboardService(game),
		admin:       service.NewAdminService(repos.user, game, cfg),
	}
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		user:        controller.NewUserController(s.user),
		game:        controller.NewGameController(s.game, a.Catalog),
		challenge:   controller.NewChallengeController(s.challenge),
		leaderboard: controller.NewLeaderboardController(s.leaderboard),
		admin:       controller.NewAdminController(s.admin),
		health:      controller.NewHealthController(a.DB, a.Redis),
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

// NewApp connects the backing stores and builds the router. When cfg.MigrateOnly
// is set it returns right after migrating.
func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}

	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		DB:        db,
		Catalog:   config.DefaultCatalog(),
	}

	if cfg.MigrateOnly {
		return app
	}

	if cfg.Redis.Host != "" {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			if cfg.Game.StateBackend == config.StateBackendRedis {
				logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
			}
			logger.Log.Warn("Redis unavailable, continuing without it", zap.Error(err))
		} else {
			app.Redis = rdb
		}
	}

	repos, err := app.initRepositories(db, app.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize repositories", zap.Error(err))
	}
	app.services = app.initServices(repos, cfg)
	controllers := app.initControllers(app.services)

	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("ctf-game", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	logger.Log.Info("Application initialized",
		zap.String("stateBackend", cfg.Game.StateBackend),
		zap.Int("challenges", app.Catalog.Len()))

	return app
}

func (a *App) watchConfig(ctx context.Context) {
	if a.ConfigDir == "" || len(a.configCallbacks) == 0 {
		return
	}
	file := filepath.Join(a.ConfigDir, "config.yaml")
	reloaders := make([]configwatcher.ConfigReloader, 0, len(a.configCallbacks))
	for _, cb := range a.configCallbacks {
		reloaders = append(reloaders, configwatcher.ConfigReloader(cb))
	}

	go func() {
		if err := configwatcher.WatchConfig(ctx, file, reloaders...); err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}()
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	a.watchConfig(ctx)

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close(shutdownCtx)
	logger.Log.Info("Server exiting")
}

// Close releases the tracer, redis and database connections.
func (a *App) Close(ctx context.Context) {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Log.Error("Failed to close redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
