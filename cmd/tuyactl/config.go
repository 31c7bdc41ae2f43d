package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Nasawa/update-tuya-ips/internal/config"
)

type fileConfig struct {
	Files config.Files `toml:"files"`
	Scan  config.Scan  `toml:"scan"`
	MQTT  config.MQTT  `toml:"mqtt"`
	Log   config.Log   `toml:"log"`
}

// loadRunConfig layers inputs in precedence order: defaults, then the config
// file (only keys the file defines), then .env / environment overrides.
func loadRunConfig(path, dotenvPath string) (config.Config, error) {
	if _, err := config.LoadDotenv(dotenvPath); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config.Config{}, fmt.Errorf("load tuyactl config: %w", err)
	}

	if meta.IsDefined("files") {
		cfg.Files = raw.Files
	}
	if meta.IsDefined("scan", "command") {
		cfg.Scan.Command = strings.TrimSpace(raw.Scan.Command)
	}
	if meta.IsDefined("scan", "args") {
		cfg.Scan.Args = raw.Scan.Args
	}
	if meta.IsDefined("scan", "timeout") {
		cfg.Scan.Timeout = strings.TrimSpace(raw.Scan.Timeout)
	}
	if meta.IsDefined("mqtt") {
		cfg.MQTT = raw.MQTT
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "format") {
		cfg.Log.Format = strings.TrimSpace(raw.Log.Format)
	}

	config.ApplyEnvOverrides(&cfg)
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
