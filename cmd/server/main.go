package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/retroplay/gbagent/backend/internal/emulator"
	"github.com/retroplay/gbagent/backend/internal/infrastructure/config"
	"github.com/retroplay/gbagent/backend/internal/infrastructure/logging"
	"github.com/retroplay/gbagent/backend/internal/infrastructure/monitoring"
	"github.com/retroplay/gbagent/backend/internal/mcp"
	"github.com/retroplay/gbagent/backend/internal/romlib"
	"github.com/retroplay/gbagent/backend/internal/server"
	"github.com/retroplay/gbagent/backend/internal/session"
	"github.com/retroplay/gbagent/backend/internal/tools"
)

const (
	serviceName = "gbagent"
	version     = "1.0.0"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	port := flag.String("port", "", "HTTP port (overrides config)")
	romDir := flag.String("rom-dir", "", "ROM directory (overrides config)")
	mode := flag.String("mode", "both", "Run mode: stdio, web, or both")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *romDir != "" {
		cfg.Emulator.ROMDir = *romDir
	}

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	runStdio := *mode == "stdio" || *mode == "both"
	runWeb := *mode == "web" || *mode == "both"
	if !runStdio && !runWeb {
		fmt.Fprintf(os.Stderr, "unknown mode %q: use stdio, web, or both\n", *mode)
		os.Exit(1)
	}
	runStdio = runStdio && cfg.MCP.Enabled
	runWeb = runWeb && cfg.Web.Enabled
	if !runStdio && !runWeb {
		fmt.Fprintln(os.Stderr, "nothing to run: both the protocol server and the web debugger are disabled")
		os.Exit(1)
	}

	log.Info("starting game agent server",
		zap.String("version", version),
		zap.String("mode", *mode),
		zap.String("rom_dir", cfg.Emulator.ROMDir))

	metrics := monitoring.NewMetrics()
	sess := session.NewController(nil, emulator.Config{DisplayMode: cfg.Emulator.DisplayMode}, log).
		WithMetrics(metrics)
	library := romlib.New(cfg.Emulator.ROMDir, log)

	registry := tools.NewRegistry(log).WithMetrics(metrics)
	provider := tools.NewProvider(sess, library, log, version)
	if err := provider.RegisterAll(registry); err != nil {
		log.Fatal("failed to register tools", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)

	if runWeb {
		srv := server.New(cfg, sess, library, registry, metrics, log, version)
		go func() { errCh <- srv.Run(ctx) }()
	}

	if runStdio {
		stdio := mcp.NewServer(registry, os.Stdin, os.Stdout, log, serviceName, version)
		go func() {
			err := stdio.Serve(ctx)
			// Stdin EOF means the client is gone; take the process
			// down with it.
			stop()
			errCh <- err
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			log.Error("server failed", zap.Error(err))
		}
		stop()
	}

	log.Info("shutting down")
	sess.Stop()
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
