package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"videoindex/config"
	"videoindex/log"
	"videoindex/middleware"
	"videoindex/routes"
	"videoindex/templates"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	Port   string
	router *gin.Engine
	cfg    config.ServerConfig
}

// NewServer 创建服务器实例
func NewServer(cfg config.ServerConfig, handlers routes.Handlers) *Server {
	// 设置 Gin 模式 (release/debug)
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog())
	router.SetHTMLTemplate(templates.Load())

	routes.SetupRoutes(router, handlers)

	return &Server{
		Port:   cfg.Port,
		router: router,
		cfg:    cfg,
	}
}

// Handler 返回路由，测试时直接使用
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 启动服务器，ctx 取消后优雅退出
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.Port)
	if err != nil {
		return fmt.Errorf("服务器启动失败: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve 在给定的 listener 上提供服务
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger := log.WithComponent("server")

	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("服务器异常退出: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭服务器失败: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
