// Command cookfarm receives spooled jobs and keeps them in a database.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"google.golang.org/grpc"

	"github.com/imagvfx/cook/config"
	"github.com/imagvfx/cook/service"
	"github.com/imagvfx/cook/service/nop"
	"github.com/imagvfx/cook/spool"
	"github.com/imagvfx/cook/sqlite"
)

func main() {
	var (
		configPath string
		addr       string
		dbPath     string
		allow      string
		dryRun     bool
		verbose    bool
	)
	flag.StringVar(&configPath, "config", "", "config file (default $"+config.EnvConfig+")")
	flag.StringVar(&addr, "addr", "", "address to bind, overrides the config")
	flag.StringVar(&dbPath, "db", "", "database path, overrides the config")
	flag.StringVar(&allow, "allow", "", "comma separated ip patterns of allowed hosts, overrides the config")
	flag.BoolVar(&dryRun, "n", false, "accept jobs without keeping them")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("cannot load config", "err", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.Farm.Addr = addr
	}
	if dbPath != "" {
		cfg.Farm.DB = dbPath
	}
	if allow != "" {
		cfg.Farm.Allow = strings.Split(allow, ",")
	}
	allowed, err := newAllowList(cfg.Farm.Allow)
	if err != nil {
		logger.Error("invalid allow list", "err", err)
		os.Exit(1)
	}

	var services service.Services
	if dryRun {
		services = nop.NewServices()
	} else {
		db, err := sqlite.Open(cfg.Farm.DB)
		if err != nil {
			logger.Error("cannot open database", "db", cfg.Farm.DB, "err", err)
			os.Exit(1)
		}
		defer db.Close()
		services = sqlite.NewServices(db)
	}

	lis, err := net.Listen("tcp", cfg.Farm.Addr)
	if err != nil {
		logger.Error("cannot listen", "addr", cfg.Farm.Addr, "err", err)
		os.Exit(1)
	}
	srv := grpc.NewServer(grpc.UnaryInterceptor(allowed.UnaryInterceptor))
	spool.RegisterFarmServer(srv, spool.NewServer(services, logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		srv.GracefulStop()
	}()

	logger.Info("farm listening", "addr", lis.Addr().String(), "db", cfg.Farm.DB, "nop", dryRun)
	err = srv.Serve(lis)
	if err != nil {
		logger.Error("serve failed", "err", err)
	}
}
