package http

import (
	"context"
	"log/slog"

	"github.com/geocoder89/accounthub/internal/http/handlers"
	"github.com/geocoder89/accounthub/internal/http/middlewares"
	"github.com/geocoder89/accounthub/internal/observability"
	"github.com/geocoder89/accounthub/internal/ratelimit"
	"github.com/geocoder89/accounthub/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 64 << 10

type Deps struct {
	Env      string
	Accounts handlers.AccountWorkflow
	Sessions *session.Cookies
	// AuthLimiter guards POST /login and POST /register; nil disables it
	AuthLimiter ratelimit.Limiter
	Prom        *observability.Prom
	Gatherer    prometheus.Gatherer
	// Ping backs /readyz; ignored when Health is set
	Ping   func(ctx context.Context) error
	Health *handlers.HealthHandler
	// TrustedProxies may set X-Forwarded-For; nil trusts none
	TrustedProxies []string
}

func NewRouter(log *slog.Logger, deps Deps) *gin.Engine {
	if deps.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// the attempt limiter keys on ClientIP, so forwarded headers count only from known proxies
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		log.Error("invalid trusted proxies, trusting none", observability.Err(err))
		_ = r.SetTrustedProxies(nil)
	}

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("accounthub"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(deps.Sessions.Middleware())

	// health
	h := deps.Health
	if h == nil {
		h = handlers.NewHealthHandler(deps.Ping)
	}
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	accounts := handlers.NewAccountHandler(deps.Accounts, deps.Sessions)

	r.GET("/", accounts.Home)
	r.GET("/services", accounts.Services)
	r.GET("/profile", accounts.Profile)

	guard := func(c *gin.Context) { c.Next() }

	if deps.AuthLimiter != nil {
		var onLimited func(route string)
		if deps.Prom != nil {
			onLimited = func(route string) { deps.Prom.RateLimited.WithLabelValues(route).Inc() }
		}

		guard = middlewares.RateLimit(deps.AuthLimiter, middlewares.KeyByRouteAndIP, log, onLimited)
	}

	r.POST("/login", guard, accounts.Login)
	r.POST("/register", guard, accounts.Register)

	// logout is reachable from a plain link as well as a form
	r.GET("/logout", accounts.Logout)
	r.POST("/logout", accounts.Logout)

	return r
}
