package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/driftbyte/skyvault/internal/config"
	"github.com/driftbyte/skyvault/internal/filefeed"
	filefeeddomain "github.com/driftbyte/skyvault/internal/filefeed/domain"
	"github.com/driftbyte/skyvault/internal/ledger"
	ledgerdomain "github.com/driftbyte/skyvault/internal/ledger/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	ledger.Module,
	filefeed.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

type Server struct {
	engine    *gin.Engine
	cfg       config.Config
	log       *zap.Logger
	ledgerSvc ledgerdomain.Service
	factRepo  filefeeddomain.Repository
	genID     *snowflake.Node
}

type Params struct {
	fx.In

	Gin       *gin.Engine
	Cfg       config.Config
	Log       *zap.Logger
	LedgerSvc ledgerdomain.Service
	FactRepo  filefeeddomain.Repository
	GenID     *snowflake.Node
}

func NewServer(p Params) *Server {
	return &Server{
		engine:    p.Gin,
		cfg:       p.Cfg,
		log:       p.Log.Named("server"),
		ledgerSvc: p.LedgerSvc,
		factRepo:  p.FactRepo,
		genID:     p.GenID,
	}
}

func (s *Server) RegisterRoutes() {
	v1 := s.engine.Group("/v1")
	v1.GET("/users/:user_id/usage", s.GetUserUsage)
	v1.POST("/users/:user_id/usage/sync", s.SyncUserUsage)
	v1.POST("/users/:user_id/replacements", s.RecordReplacement)
	v1.POST("/users/:user_id/files", s.RecordFileFact)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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
