package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finsort/finsort/internal/common"
	"github.com/finsort/finsort/internal/model"
	"github.com/finsort/finsort/internal/service"
)

const transactionColumns = `id, hash, account_number, transaction_date, description,
	description2, description3, debit_amount, credit_amount,
	categorization_status, category_id, created_at`

// SaveTransactions persists a batch of imported transactions. Re-imported
// lines are detected by content hash and skipped, so a statement can be
// loaded twice without duplicating rows. Returns the ids of the rows that
// were actually inserted; a skipped duplicate's freshly minted id never
// reaches the database, so callers must not hand it out.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, txns []model.Transaction) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTransactions(txns); err != nil {
		return nil, err
	}

	var inserted []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO transactions (
				id, hash, account_number, transaction_date, description,
				description2, description3, debit_amount, credit_amount,
				categorization_status, category_id, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(hash) DO NOTHING
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i := range txns {
			txn := &txns[i]
			result, err := stmt.ExecContext(ctx,
				txn.ID, txn.Hash, txn.AccountNumber, txn.Date, txn.Description,
				txn.Description2, txn.Description3,
				amountToNullString(txn.Debit), amountToNullString(txn.Credit),
				string(txn.Status), txn.CategoryID, txn.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
			}
			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if rowsAffected > 0 {
				inserted = append(inserted, txn.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// GetTransactionByID retrieves a single transaction.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM transactions WHERE id = ?", transactionColumns)
	txn, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetTransactions retrieves transactions matching the filter, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM transactions", transactionColumns)
	var conditions []string
	var args []any

	if filter.Status != nil {
		conditions = append(conditions, "categorization_status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.AccountNumber != "" {
		conditions = append(conditions, "account_number = ?")
		args = append(args, filter.AccountNumber)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// GetUncategorizedTransactions retrieves every transaction without a
// category link. The link's absence, not the status column, is the
// authoritative "needs categorization" signal.
func (s *SQLiteStorage) GetUncategorizedTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transactions t
		LEFT JOIN category_links l ON l.transaction_id = t.id
		WHERE l.id IS NULL
		ORDER BY t.created_at ASC, t.id ASC
	`, prefixColumns("t", transactionColumns))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get uncategorized transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// DeleteTransaction removes a transaction and cascades its category link.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM category_links WHERE transaction_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete category link: %w", err)
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete transaction: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
		}
		return nil
	})
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning logic.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var account, desc2, desc3, debit, credit sql.NullString
	var status string
	var categoryID sql.NullInt64

	err := row.Scan(
		&txn.ID, &txn.Hash, &account, &txn.Date, &txn.Description,
		&desc2, &desc3, &debit, &credit,
		&status, &categoryID, &txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.AccountNumber = account.String
	txn.Description2 = desc2.String
	txn.Description3 = desc3.String
	txn.Status = model.CategorizationStatus(status)
	if categoryID.Valid {
		txn.CategoryID = &categoryID.Int64
	}
	if txn.Debit, err = nullStringToAmount(debit); err != nil {
		return nil, fmt.Errorf("bad debit amount for %s: %w", txn.ID, err)
	}
	if txn.Credit, err = nullStringToAmount(credit); err != nil {
		return nil, fmt.Errorf("bad credit amount for %s: %w", txn.ID, err)
	}
	return &txn, nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var txns []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}

// amountToNullString stores decimal amounts as TEXT to avoid float drift.
func amountToNullString(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullStringToAmount(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, col := range cols {
		cols[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}
