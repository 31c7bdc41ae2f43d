package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Default()
	cfg.Files = Files{
		Config:   "/data/core.config_entries",
		Backup:   "/data/core.config_entries.bak",
		Work:     "/data/core.config_entries.work",
		Snapshot: "/data/snapshot.json",
		Log:      "/data/tuyactl.log",
	}
	cfg.MQTT = MQTT{Broker: "mqtt.local", Port: 1883, Topic: "homeassistant/commands"}
	return cfg
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRequiresEverySetting(t *testing.T) {
	mutations := map[string]func(*Config){
		"files.config":   func(c *Config) { c.Files.Config = "" },
		"files.backup":   func(c *Config) { c.Files.Backup = "" },
		"files.work":     func(c *Config) { c.Files.Work = " " },
		"files.snapshot": func(c *Config) { c.Files.Snapshot = "" },
		"files.log":      func(c *Config) { c.Files.Log = "" },
		"scan.command":   func(c *Config) { c.Scan.Command = "" },
		"mqtt.broker":    func(c *Config) { c.MQTT.Broker = "" },
		"mqtt.topic":     func(c *Config) { c.MQTT.Topic = "" },
		"log.level":      func(c *Config) { c.Log.Level = "" },
		"log.format":     func(c *Config) { c.Log.Format = "" },
	}
	for name, mutate := range mutations {
		cfg := validConfig()
		mutate(&cfg)
		if err := Validate(cfg); !errors.Is(err, ErrMissingSetting) {
			t.Fatalf("%s: expected ErrMissingSetting, got %v", name, err)
		}
	}
}

func TestValidateCredentialsMustPair(t *testing.T) {
	cfg := validConfig()
	cfg.MQTT.Username = "user"
	if err := Validate(cfg); !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("expected ErrInvalidSetting, got %v", err)
	}
	cfg.MQTT.Password = "pass"
	if err := Validate(cfg); err != nil {
		t.Fatalf("paired credentials rejected: %v", err)
	}
}

func TestValidatePortRange(t *testing.T) {
	cfg := validConfig()
	cfg.MQTT.Port = 0
	if err := Validate(cfg); !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("expected ErrInvalidSetting for port 0, got %v", err)
	}
	cfg.MQTT.Port = 70000
	if err := Validate(cfg); !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("expected ErrInvalidSetting for port 70000, got %v", err)
	}
}

func TestScanTimeoutParsing(t *testing.T) {
	cfg := validConfig()
	cfg.Scan.Timeout = "45s"
	d, err := cfg.ScanTimeout()
	if err != nil || d != 45*time.Second {
		t.Fatalf("unexpected timeout: %v %v", d, err)
	}

	cfg.Scan.Timeout = ""
	if d, err := cfg.ScanTimeout(); err != nil || d != 0 {
		t.Fatalf("empty timeout should be unbounded: %v %v", d, err)
	}

	cfg.Scan.Timeout = "later"
	if _, err := cfg.ScanTimeout(); !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("expected ErrInvalidSetting, got %v", err)
	}

	cfg.Scan.Timeout = "-5s"
	if _, err := cfg.ScanTimeout(); !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("expected ErrInvalidSetting for negative timeout, got %v", err)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := WriteTemplate(path, "tuyactl", false); err != nil {
		t.Fatalf("write template: %v", err)
	}

	t.Setenv(EnvMQTTBroker, "override.local")
	t.Setenv(EnvMQTTPort, "8883")
	t.Setenv(EnvSnapshotFile, filepath.Join(dir, "snap.json"))

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.MQTT.Broker != "override.local" {
		t.Fatalf("broker override not applied: %q", cfg.MQTT.Broker)
	}
	if cfg.MQTT.Port != 8883 {
		t.Fatalf("port override not applied: %d", cfg.MQTT.Port)
	}
	if cfg.Files.Snapshot != filepath.Join(dir, "snap.json") {
		t.Fatalf("snapshot override not applied: %q", cfg.Files.Snapshot)
	}
}

func TestTemplateRoundTripValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := WriteTemplate(path, "tuyactl", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, "tuyactl", false); err == nil {
		t.Fatalf("expected refusal to overwrite existing config")
	}
	if err := WriteTemplate(path, "tuyactl", true); err != nil {
		t.Fatalf("forced overwrite failed: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("template does not validate: %v", err)
	}
}

func TestTemplateUnknownKind(t *testing.T) {
	if _, err := Template("other"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(EnvMQTTTopic+"=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	t.Setenv(EnvMQTTTopic, "placeholder")
	os.Unsetenv(EnvMQTTTopic)

	loaded, err := LoadDotenv(path)
	if err != nil || !loaded {
		t.Fatalf("dotenv load failed: loaded=%v err=%v", loaded, err)
	}
	if got := os.Getenv(EnvMQTTTopic); got != "from-dotenv" {
		t.Fatalf("dotenv value not applied: %q", got)
	}

	loaded, err = LoadDotenv(filepath.Join(dir, "missing.env"))
	if err != nil || loaded {
		t.Fatalf("missing dotenv must be skipped: loaded=%v err=%v", loaded, err)
	}
}
