// Package model defines the core data structures for the finsort engine.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategorizationStatus records how a transaction arrived at its current
// category.
type CategorizationStatus string

// Categorization status values.
const (
	StatusNone   CategorizationStatus = "none"
	StatusManual CategorizationStatus = "manual"
	StatusAuto   CategorizationStatus = "auto"
)

// Transaction represents a single bank statement line item. The import
// fields never change after creation; only Status and CategoryID are
// mutable, and only through the storage layer's transition methods.
type Transaction struct {
	CreatedAt     time.Time
	Debit         *decimal.Decimal
	Credit        *decimal.Decimal
	CategoryID    *int64
	ID            string
	AccountNumber string
	Date          string // day-first textual date as found in the statement
	Description   string // primary field used for matching
	Description2  string
	Description3  string
	Hash          string
	Status        CategorizationStatus
}

// CategorizationPatch lists the only transaction fields the engine may
// change. Import fields are deliberately absent.
type CategorizationPatch struct {
	CategoryID *int64
	Status     CategorizationStatus
}

// NewTransaction builds an imported transaction, enforcing the debit XOR
// credit rule and minting an id and content hash. The date must be in one
// of the accepted statement forms.
func NewTransaction(accountNumber, date, description, description2, description3 string, debit, credit *decimal.Decimal) (*Transaction, error) {
	date = strings.TrimSpace(date)
	if _, err := ParseStatementDate(date); err != nil {
		return nil, err
	}
	if debit == nil && credit == nil {
		return nil, fmt.Errorf("transaction needs a debit or credit amount")
	}
	if debit != nil && credit != nil {
		return nil, fmt.Errorf("transaction cannot carry both debit and credit amounts")
	}

	txn := &Transaction{
		ID:            uuid.NewString(),
		AccountNumber: strings.TrimSpace(accountNumber),
		Date:          date,
		Description:   strings.TrimSpace(description),
		Description2:  strings.TrimSpace(description2),
		Description3:  strings.TrimSpace(description3),
		Debit:         debit,
		Credit:        credit,
		Status:        StatusNone,
		CreatedAt:     time.Now(),
	}
	txn.Hash = txn.GenerateHash()
	return txn, nil
}

// Amount returns the signed amount: credits positive, debits negative.
func (t *Transaction) Amount() decimal.Decimal {
	if t.Credit != nil {
		return *t.Credit
	}
	if t.Debit != nil {
		return t.Debit.Neg()
	}
	return decimal.Zero
}

// GenerateHash creates a content hash for duplicate detection on re-import.
func (t *Transaction) GenerateHash() string {
	debit, credit := "", ""
	if t.Debit != nil {
		debit = t.Debit.String()
	}
	if t.Credit != nil {
		credit = t.Credit.String()
	}
	data := fmt.Sprintf("%s:%s:%s:%s:%s", t.AccountNumber, t.Date, t.Description, debit, credit)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// Statement dates arrive as text, day-first in most exports. ISO dates show
// up in some downloads, so both are accepted.
var statementDateLayouts = []string{"02/01/2006", "2006-01-02"}

// ParseStatementDate parses the textual transaction date defensively.
func ParseStatementDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range statementDateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized statement date %q", s)
}
