package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finsort/finsort/internal/common"
	"github.com/finsort/finsort/internal/model"
	"github.com/finsort/finsort/internal/pattern"
	"github.com/finsort/finsort/internal/service"
)

// AutoCategorizer scans uncategorized transactions and applies the best
// matching rule to each.
type AutoCategorizer struct {
	storage service.Storage
}

// NewAutoCategorizer creates a batch auto-categorizer.
func NewAutoCategorizer(storage service.Storage) *AutoCategorizer {
	return &AutoCategorizer{storage: storage}
}

// RunOnce categorizes every transaction that has no category link yet,
// using only rules that carry a concrete category id. Per-item failures
// are logged and skipped so one bad row never aborts the scan; the
// returned count reflects only successful writes. The scan is resumable:
// re-invoking it only ever touches transactions still lacking a link.
func (ac *AutoCategorizer) RunOnce(ctx context.Context) (*model.ScanResult, error) {
	return ac.run(ctx, nil)
}

// RunOnceWithProgress is RunOnce with a callback invoked after each
// transaction, for progress display.
func (ac *AutoCategorizer) RunOnceWithProgress(ctx context.Context, progress func()) (*model.ScanResult, error) {
	return ac.run(ctx, progress)
}

func (ac *AutoCategorizer) run(ctx context.Context, progress func()) (*model.ScanResult, error) {
	txns, err := ac.storage.GetUncategorizedTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load uncategorized transactions: %w", err)
	}
	rules, err := ac.storage.GetRulesWithCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	matcher := pattern.NewMatcher(ac.storage)
	result := &model.ScanResult{Total: len(txns)}

	for i := range txns {
		applied, itemErr := ac.categorizeOne(ctx, matcher, rules, &txns[i])
		if itemErr != nil {
			common.LogError(itemErr, "failed to auto-categorize transaction", common.Fields{
				"transaction_id": txns[i].ID,
			})
		} else if applied {
			result.Categorized++
		}
		if progress != nil {
			progress()
		}
	}

	return result, nil
}

// CategorizeTransaction runs a single best-match attempt against the full
// rule set for one transaction, the creation-time side path. Returns
// whether a category was applied.
func (ac *AutoCategorizer) CategorizeTransaction(ctx context.Context, txn *model.Transaction) (bool, error) {
	rules, err := ac.storage.GetRules(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load rules: %w", err)
	}
	matcher := pattern.NewMatcher(ac.storage)
	return ac.categorizeOne(ctx, matcher, rules, txn)
}

func (ac *AutoCategorizer) categorizeOne(ctx context.Context, matcher *pattern.Matcher, rules []model.Rule, txn *model.Transaction) (bool, error) {
	match, err := matcher.FindBestMatch(ctx, txn.Description, rules)
	if err != nil {
		return false, err
	}
	if match == nil {
		return false, nil
	}

	category, err := ac.storage.GetCategoryByID(ctx, match.CategoryID)
	if err != nil {
		return false, err
	}

	applied, err := ac.storage.ApplyAutoCategory(ctx, txn.ID, category)
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}

	if err := ac.storage.IncrementRuleUseCount(ctx, match.Rule.ID); err != nil {
		// Usage stats are best-effort; the categorization already landed.
		slog.Warn("failed to increment rule use count",
			"rule_id", match.Rule.ID,
			"error", err)
	}
	return true, nil
}
