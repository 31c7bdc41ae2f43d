package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvConfigFile   = "TUYACTL_CONFIG_FILE"
	EnvBackupFile   = "TUYACTL_BACKUP_FILE"
	EnvWorkFile     = "TUYACTL_WORK_FILE"
	EnvSnapshotFile = "TUYACTL_SNAPSHOT_FILE"
	EnvLogFile      = "TUYACTL_LOG_FILE"
	EnvScanCommand  = "TUYACTL_SCAN_COMMAND"
	EnvScanTimeout  = "TUYACTL_SCAN_TIMEOUT"
	EnvMQTTBroker   = "TUYACTL_MQTT_BROKER"
	EnvMQTTPort     = "TUYACTL_MQTT_PORT"
	EnvMQTTUsername = "TUYACTL_MQTT_USERNAME"
	EnvMQTTPassword = "TUYACTL_MQTT_PASSWORD"
	EnvMQTTTopic    = "TUYACTL_MQTT_TOPIC"
)

// LoadDotenv loads a .env file into the process environment when present.
// A missing file is not an error; a present but unreadable one is.
func LoadDotenv(path string) (bool, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		resolved = ".env"
	}
	if _, err := os.Stat(resolved); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config dotenv stat failed (%s): %w", resolved, err)
	}
	if err := godotenv.Load(resolved); err != nil {
		return false, fmt.Errorf("config dotenv load failed (%s): %w", resolved, err)
	}
	return true, nil
}

// ApplyEnvOverrides replaces individual settings from TUYACTL_* variables.
func ApplyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Files.Config, EnvConfigFile)
	overrideString(&cfg.Files.Backup, EnvBackupFile)
	overrideString(&cfg.Files.Work, EnvWorkFile)
	overrideString(&cfg.Files.Snapshot, EnvSnapshotFile)
	overrideString(&cfg.Files.Log, EnvLogFile)
	overrideString(&cfg.Scan.Command, EnvScanCommand)
	overrideString(&cfg.Scan.Timeout, EnvScanTimeout)
	overrideString(&cfg.MQTT.Broker, EnvMQTTBroker)
	overrideString(&cfg.MQTT.Username, EnvMQTTUsername)
	overrideString(&cfg.MQTT.Password, EnvMQTTPassword)
	overrideString(&cfg.MQTT.Topic, EnvMQTTTopic)
	if raw := strings.TrimSpace(os.Getenv(EnvMQTTPort)); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil {
			cfg.MQTT.Port = port
		}
	}
}

func overrideString(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}
