package config

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SMTP configures outgoing notification mail.
type SMTP struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Config holds the process configuration. Thresholds, e-mail settings and
// the poll interval are runtime settings kept in the database instead.
type Config struct {
	Listen   string `yaml:"listen"`
	DBPath   string `yaml:"database"`
	BasePath string `yaml:"base_path"`
	PidFile  string `yaml:"pid_file"`
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	SiteName     string `yaml:"site_name"`
	AdminEmail   string `yaml:"admin_email"`
	DashboardURL string `yaml:"dashboard_url"`

	MemoryLimit    string `yaml:"memory_limit"`
	DiskPath       string `yaml:"disk_path"`
	RetentionCap   int64  `yaml:"retention_cap"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`

	SMTP SMTP `yaml:"smtp"`

	// Parsed from command line (not YAML)
	ConfigPath string `yaml:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	host, _ := os.Hostname()
	if host == "" {
		host = "resmon"
	}
	return &Config{
		Listen:         "127.0.0.1:9923",
		DBPath:         "resmon.db",
		BasePath:       "/",
		PidFile:        "resmon.pid",
		LogFile:        "resmon.log",
		LogLevel:       "info",
		SiteName:       host,
		DiskPath:       "/",
		RetentionCap:   10000,
		MetricsEnabled: true,
		SMTP:           SMTP{Port: 25},
		ConfigPath:     "config.yaml",
	}
}

// Load reads configuration with priority: defaults < YAML file < env vars <
// overrides. Overrides carry command-line flags and run before derived
// values are filled in. A missing file is not an error.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		cfg.ConfigPath = path
	}

	data, err := os.ReadFile(cfg.ConfigPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", cfg.ConfigPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", cfg.ConfigPath, err)
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(cfg)
	}
	cfg.Normalize()
	return cfg, nil
}

// ApplyEnv overrides fields from RESMON_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := map[string]*string{
		"RESMON_LISTEN":        &c.Listen,
		"RESMON_DB":            &c.DBPath,
		"RESMON_BASE_PATH":     &c.BasePath,
		"RESMON_PID_FILE":      &c.PidFile,
		"RESMON_LOG_FILE":      &c.LogFile,
		"RESMON_LOG_LEVEL":     &c.LogLevel,
		"RESMON_SITE_NAME":     &c.SiteName,
		"RESMON_ADMIN_EMAIL":   &c.AdminEmail,
		"RESMON_DASHBOARD_URL": &c.DashboardURL,
		"RESMON_MEMORY_LIMIT":  &c.MemoryLimit,
		"RESMON_DISK_PATH":     &c.DiskPath,
		"RESMON_SMTP_HOST":     &c.SMTP.Host,
		"RESMON_SMTP_USERNAME": &c.SMTP.Username,
		"RESMON_SMTP_PASSWORD": &c.SMTP.Password,
		"RESMON_SMTP_FROM":     &c.SMTP.From,
	}
	for key, dst := range str {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	if v := getenv("RESMON_SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RESMON_SMTP_PORT: %w", err)
		}
		c.SMTP.Port = port
	}
	if v := getenv("RESMON_RETENTION_CAP"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("RESMON_RETENTION_CAP: %w", err)
		}
		c.RetentionCap = n
	}
	if v := getenv("RESMON_METRICS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RESMON_METRICS_ENABLED: %w", err)
		}
		c.MetricsEnabled = b
	}
	return nil
}

// Normalize fills derived defaults.
func (c *Config) Normalize() {
	c.BasePath = NormalizeBasePath(c.BasePath)
	if c.DashboardURL == "" {
		c.DashboardURL = "http://" + c.Listen + strings.TrimSuffix(c.BasePath, "/") + "/"
	}
	if c.SMTP.From == "" {
		c.SMTP.From = c.AdminEmail
	}
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is empty")
	}
	if c.DBPath == "" {
		return errors.New("database path is empty")
	}
	if c.RetentionCap <= 0 {
		return fmt.Errorf("retention_cap must be positive, got %d", c.RetentionCap)
	}
	if c.AdminEmail != "" {
		if _, err := mail.ParseAddress(c.AdminEmail); err != nil {
			return fmt.Errorf("admin_email: %w", err)
		}
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		return errors.New("smtp.from or admin_email is required when smtp.host is set")
	}
	return nil
}

// NormalizeBasePath ensures the base path starts with "/" and has no trailing "/".
// Returns "/" for empty or root paths.
func NormalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = strings.TrimRight(p, "/")
	return p
}
