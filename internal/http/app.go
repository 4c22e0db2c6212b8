// Package http provides HTTP server infrastructure including the Module
// interface that all domain modules implement for route registration.
package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"fieldops_backend/internal/config"
	"fieldops_backend/platform/httpkit"
	"fieldops_backend/platform/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Module represents a bounded context that can register its HTTP routes.
// Each domain module implements this interface to encapsulate its own
// route setup, keeping the main router decoupled from specific endpoints.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the provided router group.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route registration.
type RouterContext struct {
	// Engine is the root Gin engine for modules that need engine-level access.
	Engine *gin.Engine
	// V1 is the /api/v1 route group.
	V1 *gin.RouterGroup
	// Protected is the authenticated route group under /api/v1.
	Protected *gin.RouterGroup
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root).
type App struct {
	Config  *config.Config
	Logger  *logger.Logger
	Health  HealthChecker
	Modules []Module
}

// BuildEngine assembles the Gin engine: global middleware, health endpoint,
// and every module's routes.
func (a *App) BuildEngine() *gin.Engine {
	if !strings.EqualFold(a.Config.Env, "development") {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(a.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(a.corsConfig()))

	limiter := httpkit.NewIPRateLimiter(rate.Limit(50), 100, a.Logger)
	engine.Use(limiter.RateLimit())

	engine.GET("/api/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := a.Health.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(httpkit.AuthRequired(a.Config.JWTAccessSecret))

	routerCtx := &RouterContext{
		Engine:    engine,
		V1:        v1,
		Protected: protected,
	}

	for _, module := range a.Modules {
		module.RegisterRoutes(routerCtx)
		a.Logger.Info("module routes registered", "module", module.Name())
	}

	return engine
}

func (a *App) corsConfig() cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	if a.Config.CORSAllowAll {
		corsCfg.AllowAllOrigins = true
		return corsCfg
	}
	corsCfg.AllowOrigins = a.Config.CORSOrigins
	corsCfg.AllowCredentials = true
	return corsCfg
}
