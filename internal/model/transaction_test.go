package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amt(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return &d
}

func TestNewTransaction(t *testing.T) {
	txn, err := NewTransaction("12345678", "15/06/2024", "TESCO STORES 3456", "CONTACTLESS", "", amt(t, "12.50"), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, txn.ID)
	assert.NotEmpty(t, txn.Hash)
	assert.Equal(t, StatusNone, txn.Status)
	assert.Nil(t, txn.CategoryID)
	assert.Equal(t, "15/06/2024", txn.Date)

	// Fields are trimmed on the way in
	trimmed, err := NewTransaction(" 12345678 ", " 15/06/2024 ", " TESCO ", "", "", amt(t, "1"), nil)
	require.NoError(t, err)
	assert.Equal(t, "12345678", trimmed.AccountNumber)
	assert.Equal(t, "TESCO", trimmed.Description)
}

func TestNewTransaction_DebitCreditRule(t *testing.T) {
	_, err := NewTransaction("1", "15/06/2024", "TESCO", "", "", nil, nil)
	assert.Error(t, err, "neither amount")

	_, err = NewTransaction("1", "15/06/2024", "TESCO", "", "", amt(t, "1"), amt(t, "2"))
	assert.Error(t, err, "both amounts")
}

func TestNewTransaction_RejectsBadDate(t *testing.T) {
	_, err := NewTransaction("1", "June 15th", "TESCO", "", "", amt(t, "1"), nil)
	assert.Error(t, err)
}

func TestTransaction_Amount(t *testing.T) {
	debit, err := NewTransaction("1", "15/06/2024", "TESCO", "", "", amt(t, "12.50"), nil)
	require.NoError(t, err)
	assert.True(t, debit.Amount().Equal(decimal.RequireFromString("-12.50")))

	credit, err := NewTransaction("1", "15/06/2024", "SALARY", "", "", nil, amt(t, "2500"))
	require.NoError(t, err)
	assert.True(t, credit.Amount().Equal(decimal.RequireFromString("2500")))
}

func TestGenerateHash(t *testing.T) {
	a, err := NewTransaction("1", "15/06/2024", "TESCO STORES 3456", "", "", amt(t, "12.50"), nil)
	require.NoError(t, err)
	b, err := NewTransaction("1", "15/06/2024", "TESCO STORES 3456", "", "", amt(t, "12.50"), nil)
	require.NoError(t, err)
	c, err := NewTransaction("1", "15/06/2024", "TESCO STORES 3456", "", "", amt(t, "12.51"), nil)
	require.NoError(t, err)

	// Same content hashes identically despite distinct ids
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Hash, b.Hash)
	assert.NotEqual(t, a.Hash, c.Hash)
}

func TestParseStatementDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "day first", input: "15/06/2024", want: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
		{name: "iso", input: "2024-06-15", want: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
		{name: "padded", input: "  15/06/2024  ", want: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
		{name: "us order rejected for month 13", input: "13/25/2024", wantErr: true},
		{name: "free text", input: "June 15th", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatementDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
		})
	}
}
