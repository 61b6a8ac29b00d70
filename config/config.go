/*
Package config 配置管理包

加载顺序：默认值 -> YAML 配置文件（可选）-> 环境变量。
所有配置在启动时读取一次，再显式传给各个组件，运行期间不再读取进程环境。

运行方式：
 1. 服务器模式: ./videoindex serve --config=videoindex.yaml
 2. 数据导入:   ./videoindex import catalog.json
 3. 重建索引:   ./videoindex reindex
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultOrigin 站点对外的规范地址
const DefaultOrigin = "http://pyvideo.org"

// Config 应用配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Site      SiteConfig      `yaml:"site"`
	Admin     AdminConfig     `yaml:"admin"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, postgres
	DSN    string `yaml:"dsn"`
}

type SearchConfig struct {
	Path     string `yaml:"path"` // 为空时使用内存索引
	PageSize int    `yaml:"page_size"`
}

type SiteConfig struct {
	Name               string `yaml:"name"`
	Origin             string `yaml:"origin"`
	SuggestionsEnabled bool   `yaml:"suggestions_enabled"`
	EditKey            string `yaml:"edit_key"` // 为空时关闭编辑
}

type AdminConfig struct {
	Token string `yaml:"token"`
}

type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"` // 为空时使用内存缓存
	RedisDB   int           `yaml:"redis_db"`
	TTL       time.Duration `yaml:"ttl"`
}

type RateLimitConfig struct {
	SuggestRPS   float64 `yaml:"suggest_rps"`
	SuggestBurst int     `yaml:"suggest_burst"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default 返回默认配置
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "videoindex.db",
		},
		Search: SearchConfig{
			PageSize: 25,
		},
		Site: SiteConfig{
			Name:               "pyvideo.org",
			Origin:             DefaultOrigin,
			SuggestionsEnabled: true,
		},
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			SuggestRPS:   20,
			SuggestBurst: 40,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load 加载配置，path 为空时只用默认值和环境变量
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("DB_PATH", cfg.Database.DSN)
	cfg.Search.Path = getEnv("SEARCH_INDEX_PATH", cfg.Search.Path)
	cfg.Site.Origin = getEnv("SITE_ORIGIN", cfg.Site.Origin)
	cfg.Site.Name = getEnv("SITE_NAME", cfg.Site.Name)
	cfg.Site.EditKey = getEnv("EDIT_KEY", cfg.Site.EditKey)
	cfg.Site.SuggestionsEnabled = getEnvBool("OPENSEARCH_ENABLE_SUGGESTIONS", cfg.Site.SuggestionsEnabled)
	cfg.Admin.Token = getEnv("ADMIN_TOKEN", cfg.Admin.Token)
	cfg.Cache.RedisAddr = getEnv("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
}

// Validate 校验配置
func (c Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("不支持的数据库驱动: %q", c.Database.Driver))
	}
	if strings.TrimSpace(c.Site.Origin) == "" {
		errs = append(errs, errors.New("site.origin 不能为空"))
	}
	if c.Search.PageSize < 1 {
		errs = append(errs, fmt.Errorf("search.page_size 必须为正数: %d", c.Search.PageSize))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port 不能为空"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
