package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/papermint/papermint/internal/catalog"
	"github.com/papermint/papermint/internal/clock"
	"github.com/papermint/papermint/internal/config"
	"github.com/papermint/papermint/internal/observability"
	obsmiddleware "github.com/papermint/papermint/internal/observability/logger"
	obsmetrics "github.com/papermint/papermint/internal/observability/metrics"
	obstracing "github.com/papermint/papermint/internal/observability/tracing"
	"github.com/papermint/papermint/internal/pipeline"
	"github.com/papermint/papermint/internal/store"
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	catalog     *catalog.Holder
	pipeline    *pipeline.Orchestrator
	statuses    store.StatusStore
	documents   store.DocumentStore
	stores      store.Stores
	pollLimiter *pollLimiter
	log         *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin       *gin.Engine
	Cfg       config.Config
	Catalog   *catalog.Holder
	Pipeline  *pipeline.Orchestrator
	Statuses  store.StatusStore
	Documents store.DocumentStore
	Stores    store.Stores
	Clock     clock.Clock
	Log       *zap.Logger
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		catalog:     p.Catalog,
		pipeline:    p.Pipeline,
		statuses:    p.Statuses,
		documents:   p.Documents,
		stores:      p.Stores,
		pollLimiter: newPollLimiter(time.Second, p.Clock.Now),
		log:         p.Log,
	}

	svc.registerWebhookRoutes()
	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerWebhookRoutes() {
	s.engine.POST("/webhooks/payment/:provider", s.HandlePaymentWebhook)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/services", s.ListServices)
	api.GET("/status/:sessionId", s.GetStatus)
	api.GET("/documents/:documentId", s.GetDocument)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.AdminRequired())

	admin.GET("/documents/stats", s.GetDocumentStats)
	admin.DELETE("/documents/:documentId", s.DeleteDocument)
	admin.POST("/store/sweep", s.SweepStores)
}

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)
