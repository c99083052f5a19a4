// Package engine orchestrates categorization: manual assignment with
// propagation to similar transactions, and the batch auto-categorization
// scan.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finsort/finsort/internal/common"
	"github.com/finsort/finsort/internal/model"
	"github.com/finsort/finsort/internal/service"
	"github.com/finsort/finsort/internal/similarity"
)

// Assigner applies manual category assignments and propagates them to
// similar transactions.
type Assigner struct {
	storage     service.Storage
	finder      *similarity.Finder
	forwardOnly bool
}

// NewAssigner creates an assignment service. When forwardOnly is set,
// propagation never touches transactions dated before the reference.
func NewAssigner(storage service.Storage, finder *similarity.Finder, forwardOnly bool) *Assigner {
	return &Assigner{
		storage:     storage,
		finder:      finder,
		forwardOnly: forwardOnly,
	}
}

// Assign applies the category to the transaction as a manual decision and,
// when applyToSimilar is set, propagates it to similar transactions that
// are still uncategorized. Unknown transaction or category ids are hard
// errors wrapping common.ErrNotFound; propagation failures for individual
// candidates are logged and skipped.
func (a *Assigner) Assign(ctx context.Context, transactionID string, categoryID int64, applyToSimilar bool) (*model.AssignmentResult, error) {
	txn, err := a.storage.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	category, err := a.storage.GetCategoryByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	// The direct assignment commits before propagation starts, so a
	// re-entrant query during propagation observes the new category.
	assignmentID, err := a.storage.ApplyManualCategory(ctx, txn.ID, category)
	if err != nil {
		return nil, fmt.Errorf("failed to assign category: %w", err)
	}

	result := &model.AssignmentResult{
		AssignmentID:  assignmentID,
		TransactionID: txn.ID,
		CategoryID:    category.ID,
	}
	if applyToSimilar {
		result.SimilarUpdated = a.propagate(ctx, txn, category)
	}
	return result, nil
}

// propagate applies the category to similar transactions. Each candidate's
// live status is re-read from the store before the transition because a
// concurrent assignment may have landed since the corpus was loaded; the
// store's conditional update is the final authority either way.
func (a *Assigner) propagate(ctx context.Context, reference *model.Transaction, category *model.Category) int {
	corpus, err := a.storage.GetTransactions(ctx, service.TransactionFilter{})
	if err != nil {
		common.LogError(err, "failed to load transactions for propagation", common.Fields{
			"transaction_id": reference.ID,
		})
		return 0
	}

	refDate, err := model.ParseStatementDate(reference.Date)
	if err != nil && a.forwardOnly {
		// Without a reference date the forward-only rule cannot be
		// checked, so propagation is skipped rather than risking a
		// retroactive edit.
		slog.Warn("skipping propagation: reference date unparseable",
			"transaction_id", reference.ID,
			"date", reference.Date,
			"error", err)
		return 0
	}

	updated := 0
	for _, candidate := range a.finder.FindSimilar(*reference, corpus) {
		if candidate.ID == reference.ID {
			continue
		}

		if a.forwardOnly {
			candidateDate, dateErr := model.ParseStatementDate(candidate.Date)
			if dateErr != nil {
				slog.Warn("skipping candidate with unparseable date",
					"transaction_id", candidate.ID,
					"date", candidate.Date)
				continue
			}
			if candidateDate.Before(refDate) {
				continue
			}
		}

		live, liveErr := a.storage.GetTransactionByID(ctx, candidate.ID)
		if liveErr != nil {
			common.LogError(liveErr, "failed to re-read candidate", common.Fields{
				"transaction_id": candidate.ID,
			})
			continue
		}
		if live.Status != model.StatusNone {
			continue
		}

		applied, applyErr := a.storage.ApplyAutoCategory(ctx, candidate.ID, category)
		if applyErr != nil {
			common.LogError(applyErr, "failed to propagate category", common.Fields{
				"transaction_id": candidate.ID,
				"category_id":    category.ID,
			})
			continue
		}
		if applied {
			updated++
		}
	}
	return updated
}

// Remove retracts a transaction's category link and resets its status to
// none. The transaction itself survives.
func (a *Assigner) Remove(ctx context.Context, transactionID string) error {
	if _, err := a.storage.GetTransactionByID(ctx, transactionID); err != nil {
		return err
	}
	return a.storage.RemoveCategoryLink(ctx, transactionID)
}
