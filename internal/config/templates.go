package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "tuyactl":
		return tuyactlTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const tuyactlTemplate = `[files]
config   = "/config/.storage/core.config_entries"
backup   = "/data/core.config_entries.bak"
work     = "/data/core.config_entries.work"
snapshot = "/data/snapshot.json"
log      = "/data/tuyactl.log"

[scan]
command = "tinytuya"
args    = ["scan"]
timeout = "0s"

[mqtt]
broker   = "homeassistant.local"
port     = 1883
username = ""
password = ""
topic    = "homeassistant/commands"

[log]
level  = "info"
format = "console"
`
