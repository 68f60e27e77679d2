package main

import (
	"log/slog"

	githubadapter "github.com/ericfisherdev/deploywatch/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/deploywatch/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/deploywatch/internal/application"
	"github.com/ericfisherdev/deploywatch/internal/config"
	"github.com/ericfisherdev/deploywatch/internal/domain/port/driven"
)

// buildService wires the query stack: GitHub provider behind the bounded
// concurrency gate, optional verdict history store, check service. The
// returned cleanup closes the history database and is safe to defer even
// when history is disabled.
func buildService(cfg *config.Config) (*application.CheckService, driven.VerdictStore, func(), error) {
	provider := githubadapter.NewProvider(cfg.GitHubToken)
	gated := application.NewGatedProvider(provider, cfg.MaxInFlight)

	var store driven.VerdictStore
	cleanup := func() {}

	if cfg.DBPath != "" {
		db, err := sqliteadapter.NewDB(cfg.DBPath)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}

		store = sqliteadapter.NewVerdictRepo(db)
		cleanup = func() {
			if err := db.Close(); err != nil {
				slog.Error("error closing history database", "error", err)
			}
		}
	}

	svc := application.NewCheckService(gated, store, cfg.Lookback, cfg.Timeout)
	return svc, store, cleanup, nil
}
