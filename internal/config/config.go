package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical config file when none is
// given on the command line.
const DefaultConfigPath = "config/visionfusion.json"

// CameraSpec is the fixed, worker-startup-time configuration of one camera.
type CameraSpec struct {
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`
}

// Config is the root configuration loaded once at startup.
// Fields omitted from the JSON file retain their default values, so partial
// configs are safe, following the same optional-pointer-field convention as
// the rest of this package's config types.
type Config struct {
	IPv4        *string               `json:"ipv4,omitempty"`
	Port        *int                  `json:"port,omitempty"`
	Camera      map[string]CameraSpec `json:"camera,omitempty"`
	AuditDBPath *string               `json:"audit_db_path,omitempty"`
}

// EmptyConfig returns a Config with all fields unset. Use LoadConfig to
// load actual values from a file.
func EmptyConfig() *Config {
	return &Config{}
}

// LoadConfig loads a Config from a JSON file. The file is validated to
// have a .json extension and be under the max file size.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.Port != nil {
		if *c.Port < 1 || *c.Port > 65535 {
			return fmt.Errorf("port must be between 1 and 65535, got %d", *c.Port)
		}
	}
	for id, spec := range c.Camera {
		if spec.Width != nil && *spec.Width <= 0 {
			return fmt.Errorf("camera %q: width must be positive, got %d", id, *spec.Width)
		}
		if spec.Height != nil && *spec.Height <= 0 {
			return fmt.Errorf("camera %q: height must be positive, got %d", id, *spec.Height)
		}
	}
	return nil
}

// GetIPv4 returns the configured listen address or its default.
func (c *Config) GetIPv4() string {
	if c.IPv4 == nil || *c.IPv4 == "" {
		return "0.0.0.0"
	}
	return *c.IPv4
}

// GetPort returns the configured listen port or its default.
func (c *Config) GetPort() int {
	if c.Port == nil {
		return 5000
	}
	return *c.Port
}

// GetAuditDBPath returns the configured audit database path or its default.
func (c *Config) GetAuditDBPath() string {
	if c.AuditDBPath == nil || *c.AuditDBPath == "" {
		return "visionfusion_audit.db"
	}
	return *c.AuditDBPath
}

const (
	defaultCameraWidth  = 640
	defaultCameraHeight = 480
)

// GetWidth returns a camera's configured width or the default.
func (s CameraSpec) GetWidth() int {
	if s.Width == nil {
		return defaultCameraWidth
	}
	return *s.Width
}

// GetHeight returns a camera's configured height or the default.
func (s CameraSpec) GetHeight() int {
	if s.Height == nil {
		return defaultCameraHeight
	}
	return *s.Height
}
