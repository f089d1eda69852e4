// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/taskdeck/taskdeck/lib/clock"
	"github.com/taskdeck/taskdeck/lib/config"
	"github.com/taskdeck/taskdeck/lib/service"
	"github.com/taskdeck/taskdeck/lib/taskcache"
	"github.com/taskdeck/taskdeck/lib/taskfeed"
	"github.com/taskdeck/taskdeck/lib/taskgen"
	"github.com/taskdeck/taskdeck/lib/taskstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var listenAddress string
	var databasePath string

	flagSet := pflag.NewFlagSet("taskdeck-service", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file (YAML or JSONC); defaults to $TASKDECK_CONFIG")
	flagSet.StringVar(&listenAddress, "listen", "", "listen address, overrides the config file")
	flagSet.StringVar(&databasePath, "db", "", "SQLite database path, overrides the config file")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if listenAddress != "" {
		cfg.ListenAddress = listenAddress
	}
	if databasePath != "" {
		cfg.DatabasePath = databasePath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := taskstore.Open(taskstore.StoreConfig{
		Path:     cfg.DatabasePath,
		PoolSize: cfg.PoolSize,
		Clock:    clock.Real(),
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	var generator taskgen.Generator
	if cfg.Generator.Endpoint != "" {
		generator, err = taskgen.NewHTTP(taskgen.HTTPConfig{
			Endpoint:  cfg.Generator.Endpoint,
			TokenFile: cfg.Generator.TokenFile,
			Model:     cfg.Generator.Model,
			Timeout:   cfg.Generator.Timeout(),
		})
		if err != nil {
			return err
		}
	} else {
		logger.Info("no generation service configured, using line-splitting fallback")
		generator = &taskgen.Fake{}
	}

	server := newServer(serverConfig{
		Store:     store,
		Loader:    taskfeed.NewLoader(store, clock.Real(), logger),
		Cache:     taskcache.New(logger),
		Generator: generator,
		Clock:     clock.Real(),
		Logger:    logger,
	})

	httpServer := service.NewHTTPServer(service.HTTPServerConfig{
		Address:         cfg.ListenAddress,
		Handler:         server.routes(),
		Logger:          logger,
		ShutdownTimeout: time.Duration(cfg.ShutdownTimeoutSeconds) * time.Second,
	})

	logger.Info("taskdeck service running",
		"listen", cfg.ListenAddress,
		"database", cfg.DatabasePath,
	)
	return httpServer.Serve(ctx)
}
