package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/patron/docs"
	"github.com/fatflowers/patron/internal/app/api/handlers"
	mw "github.com/fatflowers/patron/internal/app/api/middleware"
	"github.com/fatflowers/patron/internal/app/service/checkout"
	"github.com/fatflowers/patron/internal/app/service/ledger"
	"github.com/fatflowers/patron/internal/app/service/statistics"
	"github.com/fatflowers/patron/internal/app/service/subscription"
	"github.com/fatflowers/patron/internal/app/service/webhook"
	cfgpkg "github.com/fatflowers/patron/pkg/config"
	"github.com/fatflowers/patron/pkg/metrics"
)

func newEngine(cfg *cfgpkg.Config) *gin.Engine {
	if cfg.Env == cfgpkg.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Request logger & access log are attached per group in registerRoutes.
	r.Use(mw.TraceMiddleware())
	return r
}

type routeDeps struct {
	fx.In

	Engine       *gin.Engine
	Log          *zap.SugaredLogger
	Config       *cfgpkg.Config
	DB           *gorm.DB
	Registerer   prometheus.Registerer
	Checkout     *checkout.Service
	Ledger       *ledger.Ledger
	Subscription *subscription.Manager
	Webhook      *webhook.Handler
	Statistics   *statistics.Service
}

func registerRoutes(d routeDeps) {
	r, log, cfg := d.Engine, d.Log, d.Config

	if cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			Registerer: d.Registerer,
			Logger:     log,
		})
		p.Use(r)
	}

	var db handlers.Pinger
	if sqlDB, err := d.DB.DB(); err == nil {
		db = sqlDB
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	handlers.RegisterHealthRoutes(pub, db)
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	handlers.RegisterCommerceRoutes(apiV1, d.Checkout, d.Ledger, log)
	handlers.RegisterSubscriptionRoutes(apiV1, d.Subscription, log)
	handlers.RegisterWebhookRoutes(apiV1, d.Webhook, log)

	admin := apiV1.Group("/admin")
	admin.Use(mw.AdminAuthMiddleware(cfg.Admin.JWTSecret, log))
	handlers.RegisterAdminRoutes(admin, d.Checkout, d.Ledger, d.Statistics, log)
}

func serve(lc fx.Lifecycle, log *zap.SugaredLogger, name string, srv *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "name", name, "addr", srv.Addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("%s server error: %v", name, err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server", "name", name)
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	serve(lc, log, "api", &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second})
}

// runMetricsServer exposes /metrics on its own listener so it is never
// reachable through the public API port.
func runMetricsServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, gatherer prometheus.Gatherer) {
	if cfg.MetricsAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(gatherer))
	serve(lc, log, "metrics", &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
	fx.Invoke(runMetricsServer),
)
