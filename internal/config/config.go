package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

var (
	ErrMissingSetting = errors.New("config: missing required setting")
	ErrInvalidSetting = errors.New("config: invalid setting")
)

// Files holds every path the pipeline touches during a run.
type Files struct {
	Config   string `toml:"config"`
	Backup   string `toml:"backup"`
	Work     string `toml:"work"`
	Snapshot string `toml:"snapshot"`
	Log      string `toml:"log"`
}

// Scan describes the external scanner invocation.
type Scan struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	// Timeout bounds the scan subprocess; empty or "0s" means no deadline.
	Timeout string `toml:"timeout"`
}

// MQTT describes the reboot notification channel.
type MQTT struct {
	Broker   string `toml:"broker"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Topic    string `toml:"topic"`
}

// Log selects verbosity and output format.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the full runtime configuration for one pipeline run.
type Config struct {
	Files Files `toml:"files"`
	Scan  Scan  `toml:"scan"`
	MQTT  MQTT  `toml:"mqtt"`
	Log   Log   `toml:"log"`
}

// Default returns baseline settings before file and env input.
func Default() Config {
	return Config{
		Scan: Scan{
			Command: "tinytuya",
			Args:    []string{"scan"},
			Timeout: "0s",
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a TOML config file, applies environment overrides, and validates.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	ApplyEnvOverrides(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the required settings for a pipeline run.
func Validate(cfg Config) error {
	required := []struct {
		name  string
		value string
	}{
		{"files.config", cfg.Files.Config},
		{"files.backup", cfg.Files.Backup},
		{"files.work", cfg.Files.Work},
		{"files.snapshot", cfg.Files.Snapshot},
		{"files.log", cfg.Files.Log},
		{"scan.command", cfg.Scan.Command},
		{"mqtt.broker", cfg.MQTT.Broker},
		{"mqtt.topic", cfg.MQTT.Topic},
		{"log.level", cfg.Log.Level},
		{"log.format", cfg.Log.Format},
	}
	for _, item := range required {
		if strings.TrimSpace(item.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingSetting, item.name)
		}
	}
	if cfg.MQTT.Port <= 0 || cfg.MQTT.Port > 65535 {
		return fmt.Errorf("%w: mqtt.port=%d", ErrInvalidSetting, cfg.MQTT.Port)
	}
	hasUser := strings.TrimSpace(cfg.MQTT.Username) != ""
	hasPass := strings.TrimSpace(cfg.MQTT.Password) != ""
	if hasUser != hasPass {
		return fmt.Errorf("%w: mqtt.username and mqtt.password must be set together", ErrInvalidSetting)
	}
	if _, err := cfg.ScanTimeout(); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Log.Format)) {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log.format=%q", ErrInvalidSetting, cfg.Log.Format)
	}
	return nil
}

// ScanTimeout parses the configured scan deadline; zero means unbounded.
func (c Config) ScanTimeout() (time.Duration, error) {
	raw := strings.TrimSpace(c.Scan.Timeout)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: scan.timeout=%q", ErrInvalidSetting, c.Scan.Timeout)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: scan.timeout=%q", ErrInvalidSetting, c.Scan.Timeout)
	}
	return d, nil
}
