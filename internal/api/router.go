package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"printfleet-backend/config"
	"printfleet-backend/internal/fleet"
	"printfleet-backend/internal/mw"
	"printfleet-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, s store.Store, orch *fleet.Orchestrator, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, orch, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.RequestIPHeader)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/printers", caching, handler.GetPrinters)
		api.GET("/printers/:printer_id/mapping", handler.GetPrinterMapping)
		api.PATCH("/printers/:printer_id/config", handler.PatchPrinterConfig)
		api.POST("/printers/:printer_id/auto_configure", handler.AutoConfigurePrinter)
		api.POST("/auto_configure", handler.AutoConfigureAll)
		api.GET("/readiness", handler.GetReadiness)
		api.PUT("/job", handler.PutJob)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
