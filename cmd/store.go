package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/bcorbett503/HoopRank/internal/store"
)

// initStore opens and migrates the run history database.
func initStore(ctx context.Context) (store.Store, error) {
	if cfg.Store.Path == "" {
		return nil, eris.New("store.path is required (COURTSYNC_STORE_PATH)")
	}
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}
