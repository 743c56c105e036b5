// Command counterd runs the counter WebSocket hub.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sadopc/asap/internal/config"
	"github.com/sadopc/asap/internal/hub"
	appLog "github.com/sadopc/asap/internal/log"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default ~/.config/asap/config.yaml)")
	addr := flag.String("addr", "", "Listen address (overrides config if set)")
	flag.Parse()

	conf, err := loadConfig(*configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", *configPath)
		os.Exit(1)
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	if *addr != "" {
		conf.Hub.CounterAddr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := hub.ListenAndServe(ctx, conf.Hub.CounterAddr, hub.NewCounter()); err != nil {
		appLog.Error("counterd stopped", err)
		os.Exit(1)
	}
	appLog.Info("counterd exiting")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return config.DefaultConfig(), nil
		}
		path = p
	}
	return config.Load(path)
}
