// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main provides the entry point for the Eliza gateway server.
// The gateway fronts the Eliza chat assistant: it assembles per-request
// context, walks the provider cascade and serves the local knowledge
// fallback when every upstream tier fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/xmrtdao/eliza-gateway/internal/analytics"
	"github.com/xmrtdao/eliza-gateway/internal/api"
	"github.com/xmrtdao/eliza-gateway/internal/archive"
	"github.com/xmrtdao/eliza-gateway/internal/buildinfo"
	"github.com/xmrtdao/eliza-gateway/internal/config"
	"github.com/xmrtdao/eliza-gateway/internal/creds"
	"github.com/xmrtdao/eliza-gateway/internal/knowledge"
	"github.com/xmrtdao/eliza-gateway/internal/logging"
	"github.com/xmrtdao/eliza-gateway/internal/memory"
	"github.com/xmrtdao/eliza-gateway/internal/mining"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("eliza-gateway %s (%s, built %s)\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)
		return
	}

	// Local development keeps credentials in .env; absence is fine.
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded environment from .env")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if err := logging.ConfigureLogOutput(cfg.LoggingToFile, cfg.LogDir); err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}

	if err := run(cfg, *configPath); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func run(cfg *config.Config, configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := knowledge.Open(cfg.Knowledge)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Warnf("failed to close knowledge store: %v", cerr)
		}
	}()

	archiver, err := archive.New(cfg.Archive)
	if err != nil {
		return err
	}

	sessions := memory.NewManager(0, 0)
	go sessions.Sweep(ctx)

	poller := mining.NewPoller(cfg.Mining, nil)
	window := analytics.NewWindow(1440)
	poller.OnUpdate(func(snap mining.Snapshot) {
		window.Add(analytics.Point{Timestamp: snap.FetchedAt, Value: snap.MinerHashRate})
	})

	server, err := api.NewServer(cfg, api.Deps{
		Resolver: creds.NewStore(),
		Sessions: sessions,
		Store:    store,
		Poller:   poller,
		Window:   window,
		Archiver: archiver,
	})
	if err != nil {
		return err
	}

	if cfg.Mining.Enabled {
		detector := analytics.NewDetector()
		poller.OnUpdate(func(snap mining.Snapshot) {
			server.Events().Broadcast("mining_stats", snap)
			if report := detector.DetectZScore(snap.MinerHashRate, window.Values()); report.IsAnomaly {
				log.Warnf("hash rate anomaly: z=%.2f severity=%s", report.ZScore, report.Severity)
				server.Events().Broadcast("anomaly", report)
			}
		})
		go poller.Run(ctx)
	}

	watcher, err := config.NewWatcher(configPath, func(next *config.Config) {
		if err := server.ApplyConfig(next); err != nil {
			log.Errorf("failed to apply reloaded config: %v", err)
		}
	})
	if err != nil {
		log.Warnf("config hot reload disabled: %v", err)
	} else {
		go watcher.Run(ctx)
	}

	if err := server.Run(ctx); err != nil {
		return err
	}
	log.Info("eliza gateway stopped")
	return nil
}
