package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type QueueConfig struct {
	Workers int `yaml:"workers"` // concurrent producer calls

	// Retention is how long a terminal job and its event history stay
	// available for late stream attachments before eviction.
	Retention     time.Duration `yaml:"retention"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type AIConfig struct {
	OpenAIKey string `yaml:"openai_key"`
	GeminiKey string `yaml:"gemini_key"`
	GeminiURL string `yaml:"gemini_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

type SearchConfig struct {
	BraveKey   string `yaml:"brave_key"`
	MaxResults int    `yaml:"max_results"`
}

type RedisConfig struct {
	URL      string `yaml:"url"` // empty disables the submit rate limiter
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	SubmitLimit  int           `yaml:"submit_limit"` // submissions per window per client
	SubmitWindow time.Duration `yaml:"submit_window"`
}

type DocumentConfig struct {
	MaxBytes int64         `yaml:"max_bytes"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Queue    QueueConfig    `yaml:"queue"`
	AI       AIConfig       `yaml:"ai"`
	Search   SearchConfig   `yaml:"search"`
	Redis    RedisConfig    `yaml:"redis"`
	Document DocumentConfig `yaml:"document"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Queue.Workers <= 0 {
		c.Queue.Workers = 3
	}
	if c.Queue.Retention <= 0 {
		c.Queue.Retention = 15 * time.Minute
	}
	if c.Queue.SweepInterval <= 0 {
		c.Queue.SweepInterval = time.Minute
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4o-mini"
	}
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = 1024
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 3
	}
	if c.Redis.SubmitLimit <= 0 {
		c.Redis.SubmitLimit = 5
	}
	if c.Redis.SubmitWindow <= 0 {
		c.Redis.SubmitWindow = time.Minute
	}
	if c.Document.MaxBytes <= 0 {
		c.Document.MaxBytes = 20 << 20
	}
	if c.Document.Timeout <= 0 {
		c.Document.Timeout = 30 * time.Second
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("server.port out of range")
	}
	if c.Queue.Retention < c.Queue.SweepInterval {
		return errors.New("queue.retention must not be shorter than queue.sweep_interval")
	}
	return nil
}
