package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/finsort/finsort/internal/config"
	"github.com/finsort/finsort/internal/engine"
	"github.com/finsort/finsort/internal/service"
	"github.com/finsort/finsort/internal/similarity"
	"github.com/finsort/finsort/internal/storage"
)

// initStorage initializes the storage service with proper path expansion
// and runs any pending migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/finsort/finsort.db"
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newAssigner builds the assignment service from config.
func newAssigner(store service.Storage) *engine.Assigner {
	finder := similarity.NewFinder(viper.GetFloat64("similarity.threshold"))
	return engine.NewAssigner(store, finder, viper.GetBool("similarity.forward_only"))
}
