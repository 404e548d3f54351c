package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"billingcb/internal/api"
	"billingcb/internal/config"
	"billingcb/internal/exporter"
	"billingcb/internal/importer"
	"billingcb/internal/logger"
	"billingcb/internal/store"
)

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	store  *store.MemoryStore
	api    *api.Handler
	http   *http.Server
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	enc, err := exporter.ParseEncoding(cfg.Export.CSVEncoding)
	if err != nil {
		return nil, fmt.Errorf("invalid export config: %w", err)
	}

	snapshots := store.NewMemoryStore(time.Duration(cfg.Export.SnapshotTTLMinutes) * time.Minute)
	coordinator := importer.NewCoordinator(IngestOptions(cfg))

	s := &Server{
		router: gin.New(),
		store:  snapshots,
		api: api.NewHandler(snapshots, coordinator, api.Options{
			MaxUploadMB: cfg.Server.MaxUploadMB,
			CSVEncoding: enc,
		}),
	}
	s.setupRoutes()
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// IngestOptions 由配置生成导入选项
func IngestOptions(cfg *config.AppConfig) importer.Options {
	opts := importer.DefaultOptions()
	opts.ContractsSheet = cfg.Ingest.ContractsSheet
	opts.BillingSheet = cfg.Ingest.BillingSheet
	opts.PreviewRows = cfg.Ingest.PreviewRows
	opts.SampleRows = cfg.Ingest.SampleRows
	if cfg.Ingest.UnknownLabel != "" {
		opts.UnknownLabel = cfg.Ingest.UnknownLabel
	}
	return opts
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), requestLogger())

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api")
	{
		s.api.RegisterRoutes(api)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "接口不存在"})
	})
}

// requestLogger 每个请求一条结构化日志，并把带请求信息的 logger 放入 context
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		log := logger.L.With("method", c.Request.Method, "path", c.Request.URL.Path)
		c.Request = c.Request.WithContext(logger.ToContext(c.Request.Context(), log))

		c.Next()

		log.Info("request",
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"client", c.ClientIP())
	}
}

// Handler 返回 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，阻塞直到 Shutdown
func (s *Server) Run() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr 监听地址
func (s *Server) Addr() string {
	return s.http.Addr
}

// Shutdown 优雅关闭；可在 Run 之前或并发调用
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.MemoryStore {
	return s.store
}
