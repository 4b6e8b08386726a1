package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	API       APIConfig       `yaml:"api" toml:"api"`
	UI        UIConfig        `yaml:"ui" toml:"ui"`
	APIServer APIServerConfig `yaml:"api_server" toml:"api_server"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
}

type ServerConfig struct {
	Port string `yaml:"port" toml:"port"`
	Mode string `yaml:"mode" toml:"mode"` // debug, release
}

// APIConfig 浏览器端访问的 issues API 地址
type APIConfig struct {
	BaseURL string   `yaml:"base_url" toml:"base_url"`
	Timeout Duration `yaml:"timeout" toml:"timeout"`
}

type UIConfig struct {
	DefaultPageSize int      `yaml:"default_page_size" toml:"default_page_size"`
	PageSizes       []int    `yaml:"page_sizes" toml:"page_sizes"`
	SessionTTL      Duration `yaml:"session_ttl" toml:"session_ttl"`
}

// APIServerConfig 参考实现的 issues API 服务
type APIServerConfig struct {
	Port        string `yaml:"port" toml:"port"`
	Store       string `yaml:"store" toml:"store"` // gorm, json
	DataDir     string `yaml:"data_dir" toml:"data_dir"`
	MaxPageSize int    `yaml:"max_page_size" toml:"max_page_size"`
}

type DatabaseConfig struct {
	Type string `yaml:"type" toml:"type"` // sqlite, mysql
	DSN  string `yaml:"dsn" toml:"dsn"`
}

// Duration 支持 "15s"、"30m" 形式的配置值
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config.yaml"
		}
		loaded, err := loadOrDefault(configPath)
		if err != nil {
			klog.Errorf("[config] 加载配置文件失败，使用默认配置: %v", err)
		}
		cfg = loaded
	})
	return cfg
}

// Default 返回内置默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "debug",
		},
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8000",
			Timeout: Duration{15 * time.Second},
		},
		UI: UIConfig{
			DefaultPageSize: 10,
			PageSizes:       []int{10, 20, 50, 100},
			SessionTTL:      Duration{30 * time.Minute},
		},
		APIServer: APIServerConfig{
			Port:        "8000",
			Store:       "gorm",
			DataDir:     "./data",
			MaxPageSize: 100,
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/issues.db",
		},
	}
}

// Load 读取配置文件（yaml 或 toml），文件不存在时使用默认值，环境变量优先级最高
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			if _, err := toml.Decode(string(data), config); err != nil {
				return nil, fmt.Errorf("解析配置文件失败 %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("解析配置文件失败 %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("读取配置文件失败 %s: %w", path, err)
	}

	applyEnv(config)
	normalize(config)
	return config, nil
}

// applyEnv 环境变量优先级高于配置文件
func applyEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		config.Server.Mode = mode
	}

	if baseURL := os.Getenv("ISSUES_API_URL"); baseURL != "" {
		config.API.BaseURL = baseURL
	}
	if timeout := os.Getenv("ISSUES_API_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.API.Timeout = Duration{d}
		}
	}
	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.UI.SessionTTL = Duration{d}
		}
	}

	if apiPort := os.Getenv("API_PORT"); apiPort != "" {
		config.APIServer.Port = apiPort
	}
	if store := os.Getenv("STORE_TYPE"); store != "" {
		config.APIServer.Store = store
	}
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		config.APIServer.DataDir = dataDir
	}
	if maxPageSize := os.Getenv("MAX_PAGE_SIZE"); maxPageSize != "" {
		if n, err := strconv.Atoi(maxPageSize); err == nil {
			config.APIServer.MaxPageSize = n
		}
	}

	// 数据库环境变量
	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}
}

func normalize(config *Config) {
	config.API.BaseURL = strings.TrimSuffix(strings.TrimSpace(config.API.BaseURL), "/")
	if config.UI.DefaultPageSize <= 0 {
		config.UI.DefaultPageSize = 10
	}
	if len(config.UI.PageSizes) == 0 {
		config.UI.PageSizes = []int{config.UI.DefaultPageSize}
	}
	if config.APIServer.MaxPageSize <= 0 {
		config.APIServer.MaxPageSize = 100
	}
	if config.APIServer.DataDir == "" {
		config.APIServer.DataDir = "./data"
	}
}

// loadOrDefault 配置文件格式错误时回退到默认配置（仍应用环境变量），并返回原始错误
func loadOrDefault(path string) (*Config, error) {
	loaded, err := Load(path)
	if err == nil {
		return loaded, nil
	}
	fallback := Default()
	applyEnv(fallback)
	normalize(fallback)
	return fallback, err
}
