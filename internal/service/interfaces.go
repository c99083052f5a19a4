// Package service defines the interfaces the categorization engine depends on.
package service

import (
	"context"

	"github.com/finsort/finsort/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	Status        *model.CategorizationStatus
	AccountNumber string
	Limit         int
	Offset        int
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Transaction operations. SaveTransactions skips rows whose content
	// hash is already stored and returns the ids actually inserted.
	SaveTransactions(ctx context.Context, txns []model.Transaction) ([]string, error)
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetUncategorizedTransactions(ctx context.Context) ([]model.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error

	// Categorization state transitions. ApplyManualCategory always
	// succeeds for an existing transaction and retracts any prior link;
	// ApplyAutoCategory only takes effect while the transaction's status
	// is still none, atomically, and reports whether it was applied.
	ApplyManualCategory(ctx context.Context, transactionID string, category *model.Category) (int64, error)
	ApplyAutoCategory(ctx context.Context, transactionID string, category *model.Category) (bool, error)
	RemoveCategoryLink(ctx context.Context, transactionID string) error
	GetCategoryLink(ctx context.Context, transactionID string) (*model.CategoryLink, error)

	// Category operations
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	GetCategoriesByParent(ctx context.Context, parentID int64) ([]model.Category, error)
	CreateCategory(ctx context.Context, name string, parentID *int64) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	// Parent category operations
	GetParentCategories(ctx context.Context) ([]model.ParentCategory, error)
	GetParentCategoryByID(ctx context.Context, id int64) (*model.ParentCategory, error)
	CreateParentCategory(ctx context.Context, name string) (*model.ParentCategory, error)
	DeleteParentCategory(ctx context.Context, id int64) error

	// Rule operations
	CreateRule(ctx context.Context, rule *model.Rule) error
	GetRule(ctx context.Context, id int64) (*model.Rule, error)
	GetRules(ctx context.Context) ([]model.Rule, error)
	GetRulesWithCategory(ctx context.Context) ([]model.Rule, error)
	UpdateRule(ctx context.Context, rule *model.Rule) error
	DeleteRule(ctx context.Context, id int64) error
	IncrementRuleUseCount(ctx context.Context, id int64) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
