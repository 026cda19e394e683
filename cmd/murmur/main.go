package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/murmurlabs/murmur/internal/app"
	"github.com/murmurlabs/murmur/internal/audio"
	"github.com/murmurlabs/murmur/internal/config"
)

var version = "0.1.0-dev"

func main() {
	var (
		configPath  string
		showVersion bool
		listDevices bool
	)

	flag.StringVar(&configPath, "config", "murmur.yaml", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.BoolVar(&listDevices, "list-devices", false, "List audio input devices and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	// defaults alone are runnable; the implicit config file is optional
	if configPath == "murmur.yaml" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = ""
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		bootLogger().Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(app.ExitStartup)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.Telemetry.LogLevel),
	}))

	if listDevices {
		devices, err := audio.ListDevices()
		if err != nil {
			logger.Error("failed to enumerate devices", slog.String("error", err.Error()))
			os.Exit(app.ExitDevice)
		}
		for _, d := range devices {
			marker := " "
			if d.Default {
				marker = "*"
			}
			fmt.Printf("%s %-40s %d channels, %.0f Hz\n", marker, d.Name, d.Channels, d.SampleRate)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(app.New(cfg, logger).Run(ctx))
}

// bootLogger covers errors raised before the configured logger exists.
func bootLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
