package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/threadsync/core/internal/middleware"
	"github.com/threadsync/core/internal/modules/auth"
	"github.com/threadsync/core/internal/modules/conversation"
	"github.com/threadsync/core/internal/modules/gateway"
	"github.com/threadsync/core/internal/modules/sources"
	"github.com/threadsync/core/internal/pkg/response"
)

func (a *App) registerRoutes() {
	r := a.router
	db := a.db
	authMW := middleware.Auth()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.OptionalAuth())

	auth.NewHandler(auth.NewService(db, 0)).RegisterRoutes(api, authMW)

	userSource := sources.NewUserSource(db, a.logger)
	schemaSource := sources.NewSchemaSource(db, a.cfg.Locales)
	recordSource := sources.NewRecordSource(db)
	assetSource := sources.NewAssetSource(sources.AssetOptions{
		Endpoint:      a.cfg.Assets.Endpoint,
		Region:        a.cfg.Assets.Region,
		AccessKey:     a.cfg.Assets.AccessKey,
		SecretKey:     a.cfg.Assets.SecretKey,
		Bucket:        a.cfg.Assets.Bucket,
		PublicBaseURL: a.cfg.Assets.PublicBaseURL,
	})
	sources.NewHandler(userSource, schemaSource, recordSource, assetSource, a.logger).
		RegisterRoutes(api, authMW)

	conversation.NewHandler(a.convSvc).RegisterRoutes(api, authMW)

	gateway.RegisterRoutes(r.Group(""), a.hub)
}
