package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/chifu1234/gdnsd/internal/api"
	"github.com/chifu1234/gdnsd/internal/config"
	"github.com/chifu1234/gdnsd/internal/failover"
	"github.com/chifu1234/gdnsd/internal/health"
	"github.com/chifu1234/gdnsd/internal/logging"
	"github.com/chifu1234/gdnsd/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML configuration file (or set GDNSD_CONFIG)")
		host       = flag.String("host", "", "Override bind host")
		port       = flag.Int("port", 0, "Override bind port")
		noTCP      = flag.Bool("no-tcp", false, "Disable TCP server")
		jsonLogs   = flag.Bool("json-logs", false, "Enable JSON structured logging")
		debug      = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	path := config.ResolveConfigPath(*configPath)
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *noTCP {
		cfg.Server.DisableTCP = true
	}
	if *jsonLogs {
		cfg.Logging.Format = "json"
	}
	if *debug {
		cfg.Logging.Level = "DEBUG"
	}

	logger := logging.Configure(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	registry := health.NewRegistry()
	plugin := failover.New(registry, logger)

	resources, err := cfg.ResourceConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse resources: %v\n", err)
		os.Exit(1)
	}
	if err := plugin.LoadConfig(resources); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load resources: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &server.Server{
		Logger: logger,
		Plugin: plugin,
		Zone:   cfg.Server.Zone,
		MaxTTL: cfg.Server.MaxTTL,
		Stats:  server.NewQueryStats(),
	}

	// SIGHUP reloads the resources stanza. A failed reload logs the
	// error and keeps the current table serving.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			logger.Info("reloading configuration", "path", path)
			next, err := config.Load(path)
			if err != nil {
				logger.Error("reload failed", "error", err)
				continue
			}
			resources, err := next.ResourceConfig()
			if err != nil {
				logger.Error("reload failed", "error", err)
				continue
			}
			if err := plugin.LoadConfig(resources); err != nil {
				logger.Error("reload failed, keeping previous resource table", "error", err)
			}
		}
	}()

	if cfg.API.Enabled {
		apiSrv := api.New(cfg.API, logger, plugin, registry, srv.Stats.Snapshot)
		go func() {
			logger.Info("management API listening", "addr", apiSrv.Addr())
			if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("api server failed", "error", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := apiSrv.Shutdown(sctx); err != nil {
				logger.Error("api shutdown failed", "error", err)
			}
		}()
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	logger.Info("gdnsd starting",
		"addr", addr,
		"zone", cfg.Server.Zone,
		"tcp", !cfg.Server.DisableTCP,
	)

	if err := srv.Run(ctx, addr, !cfg.Server.DisableTCP); err != nil {
		fmt.Fprintf(os.Stderr, "server exited with error: %v\n", err)
		os.Exit(1)
	}
}
