package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/natefinch/atomic"
)

// ServerConfig holds the configuration for the HTTP server and its storage.
type ServerConfig struct {
	ApiAddr         string `json:"api_addr"`
	LogLevel        string `json:"log_level"`
	DataDir         string `json:"data_dir"`
	DatabasePath    string `json:"database_path"`
	DefaultEncoding string `json:"default_encoding"`
}

// GenerationConfig holds the defaults and limits applied to /api/generate.
type GenerationConfig struct {
	MinSize         int  `json:"min_size"`
	MaxSize         int  `json:"max_size"`
	WordsPerSize    int  `json:"words_per_size"`
	ExcludeExisting bool `json:"exclude_existing"`
	// Workers is the goroutine count used for model builds; 0 uses every CPU.
	Workers int `json:"workers"`
	// MaxWordsPerSize caps the per-length quota a client may request.
	MaxWordsPerSize int `json:"max_words_per_size"`
	// MaxWordSize caps the maxSize a client may request.
	MaxWordSize int `json:"max_word_size"`
	// TimeoutSec bounds a single generation request; 0 disables the bound.
	TimeoutSec int `json:"timeout_sec"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server     *ServerConfig     `json:"server_config"`
	Generation *GenerationConfig `json:"generation_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ApiAddr:         ":7280",
		LogLevel:        "info",
		DataDir:         "./data",
		DatabasePath:    "./data/wordmachine.db",
		DefaultEncoding: "utf-8",
	}
}

// DefaultGenerationConfig mirrors the defaults of the command-line tool.
func DefaultGenerationConfig() *GenerationConfig {
	return &GenerationConfig{
		MinSize:         3,
		MaxSize:         12,
		WordsPerSize:    100,
		ExcludeExisting: false,
		Workers:         0,
		MaxWordsPerSize: 1000,
		MaxWordSize:     64,
		TimeoutSec:      30,
	}
}

// DefaultConfig returns a full configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server:     DefaultServerConfig(),
		Generation: DefaultGenerationConfig(),
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Server == nil || c.Generation == nil {
		return errors.New("config: server_config and generation_config are required")
	}
	if c.Server.DatabasePath == "" {
		return errors.New("config: database_path must not be empty")
	}
	g := c.Generation
	if g.MinSize < 0 || g.MaxSize < g.MinSize {
		return fmt.Errorf("config: invalid size range [%d, %d]", g.MinSize, g.MaxSize)
	}
	if g.WordsPerSize < 0 || g.MaxWordsPerSize < 0 || g.MaxWordSize < 0 || g.TimeoutSec < 0 {
		return errors.New("config: counts and timeouts must not be negative")
	}
	if g.MaxWordSize > 0 && g.MaxSize > g.MaxWordSize {
		return fmt.Errorf("config: max_size %d exceeds max_word_size %d", g.MaxSize, g.MaxWordSize)
	}
	return nil
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err = writeConfig(path, config); err != nil {
				// The server can still run with defaults.
				fmt.Printf("warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func writeConfig(path string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ConfigManager handles thread-safe access to the live configuration.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	configPath string
	logger     *slog.Logger
}

// NewConfigManager loads the config at path and wraps it.
func NewConfigManager(path string) (*ConfigManager, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return &ConfigManager{
		config:     cfg,
		configPath: path,
		logger:     slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})),
	}, nil
}

// SetLogger sets the logger.
func (cm *ConfigManager) SetLogger(logger *slog.Logger) {
	cm.logger = logger
}

// Get returns a copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	server, generation := *cm.config.Server, *cm.config.Generation
	return Config{Server: &server, Generation: &generation}
}

// Generation returns a copy of the current generation settings.
func (cm *ConfigManager) Generation() GenerationConfig {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return *cm.config.Generation
}

// Update validates newConfig, saves it to disk and makes it live. Server
// settings only take effect after a restart.
func (cm *ConfigManager) Update(newConfig Config) error {
	if err := newConfig.Validate(); err != nil {
		return err
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if err := writeConfig(cm.configPath, &newConfig); err != nil {
		return err
	}
	*cm.config = newConfig

	cm.logger.Info("Configuration updated",
		slog.String("path", cm.configPath),
		slog.Int("min_size", newConfig.Generation.MinSize),
		slog.Int("max_size", newConfig.Generation.MaxSize),
		slog.Int("words_per_size", newConfig.Generation.WordsPerSize),
	)
	return nil
}
