package logging

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "TUYACTL_LOG_LEVEL"
	EnvLogTimestamp = "TUYACTL_LOG_TIMESTAMP"
	EnvLogNoColor   = "TUYACTL_LOG_NOCOLOR"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config selects log level, output format, and the optional log file that
// receives every line written to the console.
type Config struct {
	Level     string
	Format    string
	Path      string
	Timestamp bool
	NoColor   bool
}

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

var configureTestsOnce sync.Once

// DefaultConfig returns runtime logging defaults before env overrides.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    FormatConsole,
		Timestamp: true,
	}
}

// ConfigureRuntime builds the process logger, tees it into the configured log
// file when one is set, and installs it as the global zerolog logger.
func ConfigureRuntime(cfg Config) (zerolog.Logger, error) {
	applyEnvOverrides(&cfg)
	logger, err := newLogger(cfg)
	if err != nil {
		return zerolog.Nop(), err
	}
	log.Logger = logger
	return logger, nil
}

// ConfigureTests installs a debug console logger once per test binary.
func ConfigureTests() {
	configureTestsOnce.Do(func() {
		cfg := DefaultConfig()
		cfg.Level = "debug"
		cfg.Timestamp = false
		logger, err := newLogger(cfg)
		if err != nil {
			return
		}
		log.Logger = logger
	})
}

func newLogger(cfg Config) (zerolog.Logger, error) {
	level, ok := parseLevel(cfg.Level)
	if !ok {
		return zerolog.Nop(), fmt.Errorf("logging: unknown level %q", cfg.Level)
	}

	var console zerolog.LevelWriter
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case FormatConsole, "":
		console = zerolog.MultiLevelWriter(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.NoColor,
		})
	case FormatJSON:
		console = zerolog.MultiLevelWriter(os.Stdout)
	default:
		return zerolog.Nop(), fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	writer := console
	if strings.TrimSpace(cfg.Path) != "" {
		file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("logging: open log file: %w", err)
		}
		writer = zerolog.MultiLevelWriter(console, file)
	}

	ctx := zerolog.New(writer).Level(level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger(), nil
}

func applyEnvOverrides(cfg *Config) {
	if lvl := strings.TrimSpace(os.Getenv(EnvLogLevel)); lvl != "" {
		if _, ok := parseLevel(lvl); ok {
			cfg.Level = lvl
		}
	}
	if ts, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = ts
	}
	if nc, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = nc
	}
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	default:
		return zerolog.NoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return false, false
	}
	out, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return out, true
}
