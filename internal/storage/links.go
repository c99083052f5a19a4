package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/finsort/finsort/internal/common"
	"github.com/finsort/finsort/internal/model"
)

// ApplyManualCategory performs the direct-assignment transition: retract
// any existing link, create a new one, and mark the transaction manual.
// Legal regardless of the transaction's prior status. Returns the new
// link's id, which doubles as the assignment id.
func (s *SQLiteStorage) ApplyManualCategory(ctx context.Context, transactionID string, category *model.Category) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return 0, err
	}
	if category == nil {
		return 0, fmt.Errorf("%w: category", ErrNilParameter)
	}

	var linkID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE transactions
			SET categorization_status = ?, category_id = ?
			WHERE id = ?
		`, string(model.StatusManual), category.ID, transactionID)
		if err != nil {
			return fmt.Errorf("failed to update transaction status: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("transaction %s: %w", transactionID, common.ErrNotFound)
		}

		// Retract before insert: never two rows for one transaction
		if _, err := tx.ExecContext(ctx, "DELETE FROM category_links WHERE transaction_id = ?", transactionID); err != nil {
			return fmt.Errorf("failed to retract existing link: %w", err)
		}

		linkResult, err := tx.ExecContext(ctx, `
			INSERT INTO category_links (transaction_id, category_id, parent_category_id)
			VALUES (?, ?, ?)
		`, transactionID, category.ID, category.ParentID)
		if err != nil {
			return fmt.Errorf("failed to create category link: %w", err)
		}
		linkID, err = linkResult.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get link ID: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return linkID, nil
}

// ApplyAutoCategory performs the propagated/batch transition. The status
// check and the status/link write happen in one transaction with a
// conditional UPDATE, so two racing propagations cannot both observe
// status none and both write. Returns false when the guard skipped the
// transaction (already manual or auto, or unknown id).
func (s *SQLiteStorage) ApplyAutoCategory(ctx context.Context, transactionID string, category *model.Category) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return false, err
	}
	if category == nil {
		return false, fmt.Errorf("%w: category", ErrNilParameter)
	}

	applied := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE transactions
			SET categorization_status = ?, category_id = ?
			WHERE id = ? AND categorization_status = ?
		`, string(model.StatusAuto), category.ID, transactionID, string(model.StatusNone))
		if err != nil {
			return fmt.Errorf("failed to update transaction status: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			// Guard tripped: leave everything untouched.
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO category_links (transaction_id, category_id, parent_category_id)
			VALUES (?, ?, ?)
		`, transactionID, category.ID, category.ParentID); err != nil {
			return fmt.Errorf("failed to create category link: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// RemoveCategoryLink retracts a transaction's link and resets its status
// to none. The status reset is explicit, not implied by the link's absence.
func (s *SQLiteStorage) RemoveCategoryLink(ctx context.Context, transactionID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM category_links WHERE transaction_id = ?", transactionID)
		if err != nil {
			return fmt.Errorf("failed to delete category link: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("category link for transaction %s: %w", transactionID, common.ErrNotFound)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE transactions
			SET categorization_status = ?, category_id = NULL
			WHERE id = ?
		`, string(model.StatusNone), transactionID); err != nil {
			return fmt.Errorf("failed to reset transaction status: %w", err)
		}
		return nil
	})
}

// GetCategoryLink retrieves the active link for a transaction.
func (s *SQLiteStorage) GetCategoryLink(ctx context.Context, transactionID string) (*model.CategoryLink, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return nil, err
	}

	var link model.CategoryLink
	var parentID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, transaction_id, category_id, parent_category_id, created_at
		FROM category_links
		WHERE transaction_id = ?
	`, transactionID).Scan(&link.ID, &link.TransactionID, &link.CategoryID, &parentID, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category link for transaction %s: %w", transactionID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category link: %w", err)
	}
	if parentID.Valid {
		link.ParentCategoryID = &parentID.Int64
	}
	return &link, nil
}
