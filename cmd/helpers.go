package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/accounts-cli/internal/reconcile"
	"github.com/sells-group/accounts-cli/internal/schema"
	"github.com/sells-group/accounts-cli/internal/store"
)

// loadCandidates returns the column candidate lists, applying the optional
// override file from config.
func loadCandidates() (schema.Candidates, error) {
	if cfg.Columns.File == "" {
		return schema.DefaultCandidates(), nil
	}
	return schema.LoadCandidates(cfg.Columns.File)
}

// openStore opens the configured reporting store, wrapped with the query
// memo cache unless disabled.
func openStore(ctx context.Context, cols schema.Candidates) (store.Store, error) {
	var st store.Store
	var err error

	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "accounts.db"
		}
		st, err = store.NewSQLite(dsn, cols)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		}, cols)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled {
		st = store.NewCached(st)
	}
	zap.L().Debug("store initialized", zap.String("driver", cfg.Store.Driver))
	return st, nil
}

// initService wires a reconcile service over the configured store. The
// caller owns closing the returned store.
func initService(ctx context.Context) (*reconcile.Service, store.Store, error) {
	cols, err := loadCandidates()
	if err != nil {
		return nil, nil, err
	}
	st, err := openStore(ctx, cols)
	if err != nil {
		return nil, nil, err
	}
	return reconcile.New(st, cols), st, nil
}
