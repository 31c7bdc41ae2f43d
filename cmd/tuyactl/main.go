package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Nasawa/update-tuya-ips/internal/logging"
	"github.com/Nasawa/update-tuya-ips/internal/notify"
	"github.com/Nasawa/update-tuya-ips/internal/pipeline"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

func main() {
	configPath := flag.String("config", "config.toml", "path to tuyactl config")
	dotenvPath := flag.String("dotenv", "", "optional .env file applied before config load (defaults to ./.env)")
	flag.Parse()

	os.Exit(run(*configPath, *dotenvPath))
}

func run(configPath, dotenvPath string) int {
	cfg, err := loadRunConfig(configPath, dotenvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tuyactl: %v\n", err)
		return exitConfig
	}

	logger, err := logging.ConfigureRuntime(logging.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Path:      cfg.Files.Log,
		Timestamp: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "tuyactl: %v\n", err)
		return exitConfig
	}

	scanTimeout, err := cfg.ScanTimeout()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tuyactl: %v\n", err)
		return exitConfig
	}

	notifier := notify.NewMQTTNotifier(notify.Options{
		Broker:   cfg.MQTT.Broker,
		Port:     cfg.MQTT.Port,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
	})
	svc := pipeline.NewService(pipeline.Config{
		ConfigFile:   cfg.Files.Config,
		BackupFile:   cfg.Files.Backup,
		WorkFile:     cfg.Files.Work,
		SnapshotFile: cfg.Files.Snapshot,
		ScanCommand:  cfg.Scan.Command,
		ScanArgs:     cfg.Scan.Args,
		ScanTimeout:  scanTimeout,
		Topic:        cfg.MQTT.Topic,
	}, nil, notifier, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := svc.Run(ctx)
	if err != nil {
		if step, ok := pipeline.FailedStep(err); ok {
			fmt.Fprintf(os.Stderr, "tuyactl: failed at %s: %v\n", step, err)
		} else {
			fmt.Fprintf(os.Stderr, "tuyactl: %v\n", err)
		}
		return exitFailed
	}
	if result.NotifyFailed {
		logger.Warn().Msg("tuyactl finished, reboot notification was not delivered")
	}
	return exitOK
}
