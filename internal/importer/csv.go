// Package importer reads bank statement CSV exports into transactions.
package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/finsort/finsort/internal/model"
)

// statementRow mirrors one line of a bank statement CSV export. Exactly
// one of the two amount columns is populated per line.
type statementRow struct {
	Date          string `csv:"Transaction Date"`
	AccountNumber string `csv:"Account Number"`
	Description   string `csv:"Transaction Description"`
	Description2  string `csv:"Description 2"`
	Description3  string `csv:"Description 3"`
	Debit         string `csv:"Debit Amount"`
	Credit        string `csv:"Credit Amount"`
}

// ParseStatement reads statement rows from r and converts them to
// transactions with status none. Row numbers in errors are 1-based data
// rows, excluding the header.
func ParseStatement(r io.Reader) ([]model.Transaction, error) {
	var rows []*statementRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse statement CSV: %w", err)
	}

	txns := make([]model.Transaction, 0, len(rows))
	for i, row := range rows {
		txn, err := rowToTransaction(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		txns = append(txns, *txn)
	}
	return txns, nil
}

func rowToTransaction(row *statementRow) (*model.Transaction, error) {
	debit, err := parseAmount(row.Debit)
	if err != nil {
		return nil, fmt.Errorf("debit: %w", err)
	}
	credit, err := parseAmount(row.Credit)
	if err != nil {
		return nil, fmt.Errorf("credit: %w", err)
	}

	return model.NewTransaction(
		row.AccountNumber, row.Date,
		row.Description, row.Description2, row.Description3,
		debit, credit,
	)
}

func parseAmount(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return &d, nil
}
