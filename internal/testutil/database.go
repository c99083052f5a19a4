// Package testutil provides shared helpers for tests that need a real
// storage backend.
package testutil

import (
	"context"
	"testing"

	"github.com/finsort/finsort/internal/model"
	"github.com/finsort/finsort/internal/service"
	"github.com/finsort/finsort/internal/storage"
)

// TestDB wraps an in-memory storage instance seeded for a test.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory SQLite store and registers
// cleanup with the test.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return &TestDB{Storage: store, t: t}
}

// MustCreateCategory creates a category or fails the test.
func (db *TestDB) MustCreateCategory(name string, parentID *int64) *model.Category {
	db.t.Helper()
	category, err := db.Storage.CreateCategory(context.Background(), name, parentID)
	if err != nil {
		db.t.Fatalf("failed to create category %q: %v", name, err)
	}
	return category
}

// MustCreateParent creates a parent category or fails the test.
func (db *TestDB) MustCreateParent(name string) *model.ParentCategory {
	db.t.Helper()
	parent, err := db.Storage.CreateParentCategory(context.Background(), name)
	if err != nil {
		db.t.Fatalf("failed to create parent category %q: %v", name, err)
	}
	return parent
}

// MustCreateRule creates a rule or fails the test.
func (db *TestDB) MustCreateRule(rule *model.Rule) *model.Rule {
	db.t.Helper()
	if err := db.Storage.CreateRule(context.Background(), rule); err != nil {
		db.t.Fatalf("failed to create rule: %v", err)
	}
	return rule
}

// MustSaveTransactions saves transactions or fails the test. Every
// transaction is expected to be new.
func (db *TestDB) MustSaveTransactions(txns ...model.Transaction) {
	db.t.Helper()
	inserted, err := db.Storage.SaveTransactions(context.Background(), txns)
	if err != nil {
		db.t.Fatalf("failed to save transactions: %v", err)
	}
	if len(inserted) != len(txns) {
		db.t.Fatalf("saved %d of %d transactions, rest were duplicates", len(inserted), len(txns))
	}
}
