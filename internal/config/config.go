package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type SessionConfig struct {
	CookieName   string        `yaml:"cookie_name"`
	TTL          time.Duration `yaml:"ttl"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

type RedisConfig struct {
	URL      string `yaml:"url"` // empty means in-memory sessions
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AIConfig struct {
	Mode            string        `yaml:"mode"` // ollama | rules
	BackendURL      string        `yaml:"backend_url"`
	Model           string        `yaml:"model"`
	ProbeTimeout    time.Duration `yaml:"probe_timeout"`
	GenerateTimeout time.Duration `yaml:"generate_timeout"`
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent AI calls
}

type StoreConfig struct {
	UsersFile string `yaml:"users_file"`
	ChatsFile string `yaml:"chats_file"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Session SessionConfig `yaml:"session"`
	Redis   RedisConfig   `yaml:"redis"`
	AI      AIConfig      `yaml:"ai"`
	Store   StoreConfig   `yaml:"store"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file, applies defaults and environment
// overrides, and validates. A missing file is not an error: the defaults
// plus environment variables describe a fully runnable configuration.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "novai_session"
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = time.Hour
	}
	if cfg.AI.Mode == "" {
		cfg.AI.Mode = "ollama"
	}
	if cfg.AI.BackendURL == "" {
		cfg.AI.BackendURL = "http://localhost:11434"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "llama3.2"
	}
	if cfg.AI.ProbeTimeout <= 0 {
		cfg.AI.ProbeTimeout = 5 * time.Second
	}
	if cfg.AI.GenerateTimeout <= 0 {
		cfg.AI.GenerateTimeout = 2 * time.Minute
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.Store.UsersFile == "" {
		cfg.Store.UsersFile = "users.json"
	}
	if cfg.Store.ChatsFile == "" {
		cfg.Store.ChatsFile = "chats.json"
	}

	applyEnvOverrides(&cfg)

	// Minimal validation
	if cfg.AI.Mode != "ollama" && cfg.AI.Mode != "rules" {
		return nil, fmt.Errorf("ai.mode must be ollama or rules, got %q", cfg.AI.Mode)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// applyEnvOverrides keeps the original deployment contract: the backend URL,
// model name and listen port stay configurable via environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		cfg.AI.BackendURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
}
