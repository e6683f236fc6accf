package main

import (
	"context"
	"flag"
	"os"

	"github.com/charmbracelet/log"

	"github.com/HelioWoi/liveplan3/pkg/bridge"
	"github.com/HelioWoi/liveplan3/pkg/bus"
	"github.com/HelioWoi/liveplan3/pkg/config"
	"github.com/HelioWoi/liveplan3/pkg/goals"
	"github.com/HelioWoi/liveplan3/pkg/ledger"
	"github.com/HelioWoi/liveplan3/pkg/localstore"
	"github.com/HelioWoi/liveplan3/pkg/remote"
	"github.com/HelioWoi/liveplan3/pkg/server"
	"github.com/HelioWoi/liveplan3/pkg/weekly"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "liveplan",
	})

	var (
		cfgFile = flag.String("config", "", "Config file (default is config.yaml)")
		addr    = flag.String("addr", "", "Listen address (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Build(*cfgFile, nil)
	if err != nil {
		logger.Fatal("failed to load config", "err", err)
	}
	if *addr != "" {
		cfg.ServerAddr = *addr
	}

	local, err := localstore.Open(cfg.DataFile)
	if err != nil {
		logger.Fatal("failed to open local store", "path", cfg.DataFile, "err", err)
	}

	client := remote.New(cfg.Remote.URL, cfg.Remote.APIKey, logger)
	notifications := bus.New(logger)

	ledgerStore := ledger.New(client, local, notifications, logger)
	weeklyStore := weekly.New(local, notifications, logger)
	goalStore := goals.New(client, ledgerStore, logger)
	br := bridge.New(ledgerStore, weeklyStore, notifications, logger)

	if session := cfg.Session(); session != nil {
		ledgerStore.SetSession(session)
		goalStore.SetSession(session)
		logger.Info("authenticated session installed", "owner", session.Owner)
		if pushed, err := ledgerStore.SyncPending(context.Background()); err != nil {
			logger.Warn("pending sync failed", "err", err)
		} else if pushed > 0 {
			logger.Info("pushed pending records to remote", "count", pushed)
		}
	} else {
		logger.Info("no session configured, running local-only")
	}

	srv := server.New(cfg, logger, ledgerStore, weeklyStore, goalStore, br)
	logger.Info("starting server", "addr", cfg.ServerAddr)
	if err := srv.Start(cfg.ServerAddr); err != nil {
		logger.Fatal("server error", "err", err)
	}
}
