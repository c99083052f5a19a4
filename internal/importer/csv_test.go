package importer

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsort/finsort/internal/model"
)

const statementHeader = "Transaction Date,Account Number,Transaction Description,Description 2,Description 3,Debit Amount,Credit Amount\n"

func TestParseStatement(t *testing.T) {
	csv := statementHeader +
		"15/06/2024,12345678,TESCO STORES 3456,CONTACTLESS,,12.50,\n" +
		"16/06/2024,12345678,SALARY ACME LTD,,,,2500.00\n"

	txns, err := ParseStatement(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	tesco := txns[0]
	assert.Equal(t, "15/06/2024", tesco.Date)
	assert.Equal(t, "12345678", tesco.AccountNumber)
	assert.Equal(t, "TESCO STORES 3456", tesco.Description)
	assert.Equal(t, "CONTACTLESS", tesco.Description2)
	assert.Empty(t, tesco.Description3)
	require.NotNil(t, tesco.Debit)
	assert.True(t, tesco.Debit.Equal(decimal.RequireFromString("12.50")))
	assert.Nil(t, tesco.Credit)
	assert.Equal(t, model.StatusNone, tesco.Status)
	assert.NotEmpty(t, tesco.ID)
	assert.NotEmpty(t, tesco.Hash)

	salary := txns[1]
	assert.Nil(t, salary.Debit)
	require.NotNil(t, salary.Credit)
	assert.True(t, salary.Credit.Equal(decimal.RequireFromString("2500.00")))
	assert.True(t, salary.Amount().IsPositive())
}

func TestParseStatement_IdenticalLinesShareHash(t *testing.T) {
	csv := statementHeader +
		"15/06/2024,12345678,TESCO STORES 3456,,,12.50,\n" +
		"15/06/2024,12345678,TESCO STORES 3456,,,12.50,\n"

	txns, err := ParseStatement(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, txns[0].Hash, txns[1].Hash)
	assert.NotEqual(t, txns[0].ID, txns[1].ID)
}

func TestParseStatement_RowErrors(t *testing.T) {
	tests := []struct {
		name    string
		rows    string
		wantErr string
	}{
		{
			name:    "both amounts present",
			rows:    "15/06/2024,12345678,TESCO STORES 3456,,,12.50,3.00\n",
			wantErr: "row 1",
		},
		{
			name:    "neither amount present",
			rows:    "15/06/2024,12345678,TESCO STORES 3456,,,,\n",
			wantErr: "row 1",
		},
		{
			name:    "bad amount",
			rows:    "15/06/2024,12345678,TESCO STORES 3456,,,twelve,\n",
			wantErr: "invalid amount",
		},
		{
			name: "bad date on second row",
			rows: "15/06/2024,12345678,TESCO STORES 3456,,,12.50,\n" +
				"June 16th,12345678,COSTA COFFEE,,,3.10,\n",
			wantErr: "row 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStatement(strings.NewReader(statementHeader + tt.rows))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseStatement_ISODatesAccepted(t *testing.T) {
	csv := statementHeader + "2024-06-15,12345678,TESCO STORES 3456,,,12.50,\n"
	txns, err := ParseStatement(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "2024-06-15", txns[0].Date)
}

func TestParseStatement_HeaderOnly(t *testing.T) {
	txns, err := ParseStatement(strings.NewReader(statementHeader))
	require.NoError(t, err)
	assert.Empty(t, txns)
}
