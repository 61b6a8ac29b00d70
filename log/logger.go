// Package log 提供基于 zerolog 的结构化日志
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config 日志配置
type Config struct {
	Level   string    // debug, info, warn, error
	Output  io.Writer // 默认 os.Stdout
	Service string    // 每条日志附带的服务名
}

var (
	once sync.Once
	base zerolog.Logger
)

// Configure 初始化全局 logger，只生效一次
func Configure(cfg Config) {
	once.Do(func() {
		level := zerolog.InfoLevel
		if cfg.Level != "" {
			if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
				level = parsed
			}
		} else if env := os.Getenv("LOG_LEVEL"); env != "" {
			if parsed, err := zerolog.ParseLevel(env); err == nil {
				level = parsed
			}
		}
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = time.RFC3339

		writer := cfg.Output
		if writer == nil {
			writer = os.Stdout
		}

		service := cfg.Service
		if service == "" {
			service = "videoindex"
		}

		base = zerolog.New(writer).With().
			Timestamp().
			Str("service", service).
			Logger()
	})
}

// Base 返回全局 logger
func Base() zerolog.Logger {
	Configure(Config{})
	return base
}

// WithComponent 返回带 component 字段的子 logger
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}
