/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the packetwire configuration
type Config struct {
	Codec   Codec   `yaml:"codec"`
	Server  Server  `yaml:"server"`
	Archive Archive `yaml:"archive"`
	Logging Logging `yaml:"logging"`
}

// Codec controls packet construction and wire decoding
type Codec struct {
	Compression     string `yaml:"compression"`
	MaxPayloadBytes int    `yaml:"max_payload_bytes"`
	MaxDecodedBytes int    `yaml:"max_decoded_bytes"`
	AllowTrailing   bool   `yaml:"allow_trailing"`
	VerifyOnDecode  bool   `yaml:"verify_on_decode"`
}

// Server contains HTTP boundary configuration
type Server struct {
	Bind   string `yaml:"bind"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

// Archive contains packet archive configuration
type Archive struct {
	DataDir string `yaml:"data_dir"`
	Sync    bool   `yaml:"sync"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

var compressionNames = []string{"snappy", "zstd"}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Codec: Codec{
			Compression:     "snappy",
			MaxPayloadBytes: 8 << 20,
			MaxDecodedBytes: 64 << 20,
			AllowTrailing:   false,
			VerifyOnDecode:  false,
		},
		Server: Server{
			Bind: "127.0.0.1",
			Port: 8080,
		},
		Archive: Archive{
			DataDir: "./data",
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks that the configuration values are usable
func (c *Config) Validate() error {
	if !contains(compressionNames, strings.ToLower(c.Codec.Compression)) {
		return fmt.Errorf("unknown compression %q (want one of %s)", c.Codec.Compression, strings.Join(compressionNames, ", "))
	}
	if c.Codec.MaxPayloadBytes <= 0 {
		return fmt.Errorf("codec.max_payload_bytes must be positive, got %d", c.Codec.MaxPayloadBytes)
	}
	if c.Codec.MaxDecodedBytes <= 0 {
		return fmt.Errorf("codec.max_decoded_bytes must be positive, got %d", c.Codec.MaxDecodedBytes)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	return nil
}

// LoadConfig loads configuration from the specified path. Fields missing from
// the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may hold the API key
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration with a generated API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.Archive.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate api key: %w", err)
	}
	config.Server.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./packetwire.yaml"
	}

	configDir := filepath.Join(homeDir, ".config", "packetwire")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
