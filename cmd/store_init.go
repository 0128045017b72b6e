package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/quotewell/placement-cli/internal/matching"
	"github.com/quotewell/placement-cli/internal/ranker"
	"github.com/quotewell/placement-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "placement.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.Pool.MaxConns,
			MinConns: cfg.Store.Pool.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initEngine(st store.Store) (*matching.Engine, error) {
	var weights *ranker.Weights
	if cfg.Match.RankWeightsPath != "" {
		w, err := ranker.LoadWeights(cfg.Match.RankWeightsPath)
		if err != nil {
			return nil, eris.Wrap(err, "load ranking weights")
		}
		weights = &w
	}

	return matching.NewEngine(st, matching.Options{
		SignalLookbackDays: cfg.Match.SignalLookbackDays,
		MaxConcurrency:     cfg.Match.MaxConcurrency,
		CarrierTimeout:     time.Duration(cfg.Match.CarrierTimeoutSecs) * time.Second,
		Weights:            weights,
	}), nil
}

func parseCarrierID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, eris.Wrapf(err, "invalid carrier id %q", s)
	}
	return id, nil
}
