package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/threadsync/core/internal/config"
	"github.com/threadsync/core/internal/database"
	"github.com/threadsync/core/internal/middleware"
	"github.com/threadsync/core/internal/modules/conversation"
	"github.com/threadsync/core/internal/modules/gateway"
	"github.com/threadsync/core/internal/pkg/jwt"
	pkgredis "github.com/threadsync/core/internal/pkg/redis"
)

// App holds all application dependencies.
type App struct {
	cfg     *config.AppConfig
	router  *gin.Engine
	db      *gorm.DB
	hub     *gateway.Hub
	convSvc *conversation.Service
	logger  *zap.Logger
	cancel  context.CancelFunc
}

// New initializes the application: config → DB → Redis → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	jwt.SetSecret(cfg.JWTSecret)

	db, err := database.Connect(cfg, true)
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
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(corsConfig(cfg)))

	hub := gateway.NewHub(rc, logger, func(token string) bool {
		_, err := jwt.Parse(token)
		return err == nil
	})

	convSvc := conversation.NewService(db, logger, hub, rc, conversation.Options{
		Cooldown:     cfg.Sync.Cooldown(),
		RetryBackoff: cfg.Sync.RetryBackoff(),
		MaxAttempts:  cfg.Sync.MaxAttempts,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	go convSvc.Run(ctx)

	app := &App{
		cfg:     cfg,
		router:  router,
		db:      db,
		hub:     hub,
		convSvc: convSvc,
		logger:  logger,
		cancel:  cancel,
	}
	app.registerRoutes()
	return app, nil
}

func corsConfig(cfg *config.AppConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		corsCfg.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		corsCfg.AllowOriginFunc = func(origin string) bool { return true }
	}
	return corsCfg
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown cleans up background goroutines and open sync queues.
func (a *App) Shutdown() {
	a.cancel()
	a.convSvc.Close()
}
