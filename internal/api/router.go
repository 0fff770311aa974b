package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"profsafe-backend/config"
	"profsafe-backend/internal/mw"
)

func limitOrDefault(perSec float64, burst int, defPerSec float64, defBurst int) (rate.Limit, int) {
	if perSec <= 0 {
		perSec = defPerSec
	}
	if burst <= 0 {
		burst = defBurst
	}
	return rate.Limit(perSec), burst
}

// NewRouter creates and configures a new Gin router. Forwarded client
// addresses are only honoured from cfg.TrustedProxies.
func NewRouter(h *Handler, cfg config.ServerConfig) (*gin.Engine, error) {
	r := gin.Default()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	if cfg.RequestIPHeader != "" {
		r.TrustedPlatform = cfg.RequestIPHeader
	}
	r.SetHTMLTemplate(pageTemplates())

	h.limiter = mw.NewIPRateLimiter(limitOrDefault(cfg.RateLimitPerSec, cfg.RateLimitBurst, 10, 5))
	h.alertLimiter = mw.NewIPRateLimiter(limitOrDefault(cfg.AlertRateLimitPerSec, cfg.AlertRateLimitBurst, 5, 20))

	caching := mw.Cache(h.responses, h.cacheTTL)
	schoolCaching := mw.CacheBy(h.responses, h.cacheTTL, h.revisionKey)
	session := h.RequireSession()

	r.GET("/teste", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET(loginPath, h.LoginPage)
	r.POST(loginPath, h.Login)
	r.POST("/logout_central", h.Logout)
	r.GET(centralPath, session, h.Central)
	r.GET("/report.pdf", session, h.GetReportPDF)
	r.GET("/report.xlsx", session, h.GetReportXLSX)

	// Alert creation has its own bucket so dashboard polling behind a shared
	// NAT address cannot starve it.
	r.POST("/api/alert", h.alertLimiter.Middleware(), h.CreateAlert)

	// API group
	api := r.Group("/api")
	api.Use(h.limiter.Middleware())
	{
		api.GET("/status", h.GetStatus)
		api.GET("/siren_mode", h.GetSirenMode)
		api.GET("/school", schoolCaching, h.GetSchool)

		api.POST("/resolve", session, h.Resolve)
		api.POST("/clear", session, h.Clear)
		api.POST("/siren", session, h.SetSiren)
		api.POST("/siren_mode", session, h.SetSirenMode)
		api.POST("/school", session, h.SetSchool)
		api.GET("/history", session, h.GetHistory)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", caching, h.GetVAPIDPublicKey)
	}

	return r, nil
}
