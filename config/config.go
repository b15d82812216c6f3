package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	MinPort = 1
	MaxPort = 65535
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	App     AppConfig     `yaml:"app"`
	RemBG   RemBGConfig   `yaml:"rembg"`
	Scratch ScratchConfig `yaml:"scratch"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// RemBGConfig 远端 Gradio 应用的配置
type RemBGConfig struct {
	BaseURL   string `yaml:"base_url"`
	TriggerID int    `yaml:"trigger_id"`
	FnIndex   int    `yaml:"fn_index"`
	// PollTimeout 等待任务完成的上限，0 表示一直等待
	PollTimeout time.Duration `yaml:"poll_timeout"`
}

type ScratchConfig struct {
	Dir       string        `yaml:"dir"`
	SweepSpec string        `yaml:"sweep_spec"`
	MaxAge    time.Duration `yaml:"max_age"`
}

// Default returns the configuration used for any field the file leaves out.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    5 * time.Minute,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
		App: AppConfig{
			Name:        "rmbg",
			Version:     "dev",
			Environment: "development",
		},
		RemBG: RemBGConfig{
			BaseURL:     "https://ecshreve-bg-remover.hf.space",
			TriggerID:   10,
			FnIndex:     0,
			PollTimeout: 2 * time.Minute,
		},
		Scratch: ScratchConfig{
			Dir:       filepath.Join(os.TempDir(), "rmbg"),
			SweepSpec: "@every 10m",
			MaxAge:    time.Hour,
		},
	}
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	u, err := url.Parse(c.RemBG.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid rembg base_url: %q", c.RemBG.BaseURL)
	}

	if c.RemBG.PollTimeout < 0 {
		return fmt.Errorf("rembg poll_timeout must not be negative")
	}

	if c.Scratch.Dir == "" {
		return fmt.Errorf("scratch dir is required")
	}

	if c.Scratch.MaxAge <= 0 {
		return fmt.Errorf("scratch max_age must be greater than 0")
	}

	if _, err := cron.ParseStandard(c.Scratch.SweepSpec); err != nil {
		return fmt.Errorf("invalid scratch sweep_spec %q: %w", c.Scratch.SweepSpec, err)
	}

	return nil
}
