package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spes-app/core/internal/config"
	"github.com/spes-app/core/internal/database"
	"github.com/spes-app/core/internal/middleware"
	"github.com/spes-app/core/internal/modules/gateway"
	"github.com/spes-app/core/internal/modules/marker"
	pkgredis "github.com/spes-app/core/internal/pkg/redis"
	"go.uber.org/zap"
)

// App holds all application dependencies.
type App struct {
	cfg     *config.AppConfig
	router  *gin.Engine
	db      *database.DB
	markers *marker.Service
	hub     *gateway.Hub
	logger  *zap.Logger
	cancel  context.CancelFunc
}

// New initializes the application: config → Mongo → Redis → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		corsConfig.AllowOriginFunc = func(origin string) bool {
			return originAllowed(patterns, origin)
		}
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	router.Use(cors.New(corsConfig))

	markers := marker.NewService(db, marker.NewNotifier(rc, logger), logger)
	hub := gateway.NewHub(markers, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go markers.Run(ctx)
	go hub.Run(ctx)

	app := &App{
		cfg:     cfg,
		router:  router,
		db:      db,
		markers: markers,
		hub:     hub,
		logger:  logger,
		cancel:  cancel,
	}
	app.registerRoutes()

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown cleans up background goroutines and the database client.
func (a *App) Shutdown(ctx context.Context) {
	a.cancel()
	if err := a.db.Close(ctx); err != nil {
		a.logger.Warn("mongo disconnect failed", zap.Error(err))
	}
}
