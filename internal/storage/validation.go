package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/finsort/finsort/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidRule        = errors.New("invalid rule")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(txns []model.Transaction) error {
	if txns == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(txns) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i := range txns {
		if err := validateTransaction(&txns[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTransaction)
	}
	if txn.Description == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidTransaction)
	}
	if _, err := model.ParseStatementDate(txn.Date); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	if txn.Debit == nil && txn.Credit == nil {
		return fmt.Errorf("%w: neither debit nor credit set", ErrInvalidTransaction)
	}
	if txn.Debit != nil && txn.Credit != nil {
		return fmt.Errorf("%w: both debit and credit set", ErrInvalidTransaction)
	}
	return nil
}

// validateRule validates a similarity pattern rule.
func validateRule(rule *model.Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if err := validateString(rule.PatternValue, "pattern_value"); err != nil {
		return err
	}
	if err := validateString(string(rule.PatternType), "pattern_type"); err != nil {
		return err
	}
	if rule.CategoryID == nil && rule.ParentCategoryID == nil {
		return fmt.Errorf("%w: rule needs a category or parent category target", ErrInvalidRule)
	}
	if rule.Confidence < 0 {
		return fmt.Errorf("%w: confidence cannot be negative", ErrInvalidRule)
	}
	return nil
}
