package engine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsort/finsort/internal/common"
	"github.com/finsort/finsort/internal/model"
	"github.com/finsort/finsort/internal/similarity"
	"github.com/finsort/finsort/internal/testutil"
)

func statementTxn(t *testing.T, date, description string) model.Transaction {
	t.Helper()
	amount := decimal.RequireFromString("12.50")
	txn, err := model.NewTransaction("12345678", date, description, "", "", &amount, nil)
	require.NoError(t, err)
	return *txn
}

func TestAssigner_Assign_PropagatesToSimilar(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	groceries := db.MustCreateCategory("Groceries", nil)

	reference := statementTxn(t, "15/06/2024", "TESCO STORES 3456")
	later := statementTxn(t, "20/06/2024", "TESCO STORES 9921")
	earlier := statementTxn(t, "01/06/2024", "TESCO STORES 1277")
	unrelated := statementTxn(t, "16/06/2024", "COSTA COFFEE 412")
	db.MustSaveTransactions(reference, later, earlier, unrelated)

	assigner := NewAssigner(db.Storage, similarity.NewFinder(0), true)
	result, err := assigner.Assign(ctx, reference.ID, groceries.ID, true)
	require.NoError(t, err)

	assert.Equal(t, reference.ID, result.TransactionID)
	assert.Equal(t, groceries.ID, result.CategoryID)
	assert.Positive(t, result.AssignmentID)
	assert.Equal(t, 1, result.SimilarUpdated)

	// The reference itself became manual
	got, err := db.Storage.GetTransactionByID(ctx, reference.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusManual, got.Status)

	// The later similar transaction became auto
	got, err = db.Storage.GetTransactionByID(ctx, later.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAuto, got.Status)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, groceries.ID, *got.CategoryID)

	// Forward-only: the earlier similar transaction stays untouched
	got, err = db.Storage.GetTransactionByID(ctx, earlier.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNone, got.Status)

	// Dissimilar descriptions are never touched
	got, err = db.Storage.GetTransactionByID(ctx, unrelated.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNone, got.Status)
}

func TestAssigner_Assign_PropagatesToSameDayCandidates(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	groceries := db.MustCreateCategory("Groceries", nil)

	// Forward-only is inclusive: a candidate dated the same day as the
	// reference is not "before" it and must be propagated to.
	reference := statementTxn(t, "15/06/2024", "TESCO STORES 3456")
	sameDay := statementTxn(t, "15/06/2024", "TESCO STORES 9921")
	db.MustSaveTransactions(reference, sameDay)

	assigner := NewAssigner(db.Storage, similarity.NewFinder(0), true)
	result, err := assigner.Assign(ctx, reference.ID, groceries.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SimilarUpdated)

	got, err := db.Storage.GetTransactionByID(ctx, sameDay.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAuto, got.Status)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, groceries.ID, *got.CategoryID)
}

func TestAssigner_Assign_BackwardPropagationWhenDisabled(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	groceries := db.MustCreateCategory("Groceries", nil)

	reference := statementTxn(t, "15/06/2024", "TESCO STORES 3456")
	earlier := statementTxn(t, "01/06/2024", "TESCO STORES 1277")
	db.MustSaveTransactions(reference, earlier)

	assigner := NewAssigner(db.Storage, similarity.NewFinder(0), false)
	result, err := assigner.Assign(ctx, reference.ID, groceries.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SimilarUpdated)

	got, err := db.Storage.GetTransactionByID(ctx, earlier.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAuto, got.Status)
}

func TestAssigner_Assign_NeverOverridesExistingCategorization(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	groceries := db.MustCreateCategory("Groceries", nil)
	household := db.MustCreateCategory("Household", nil)

	reference := statementTxn(t, "15/06/2024", "TESCO STORES 3456")
	alreadyManual := statementTxn(t, "20/06/2024", "TESCO STORES 9921")
	db.MustSaveTransactions(reference, alreadyManual)

	_, err := db.Storage.ApplyManualCategory(ctx, alreadyManual.ID, household)
	require.NoError(t, err)

	assigner := NewAssigner(db.Storage, similarity.NewFinder(0), true)
	result, err := assigner.Assign(ctx, reference.ID, groceries.ID, true)
	require.NoError(t, err)
	assert.Zero(t, result.SimilarUpdated)

	got, err := db.Storage.GetTransactionByID(ctx, alreadyManual.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusManual, got.Status)
	assert.Equal(t, household.ID, *got.CategoryID)
}

func TestAssigner_Assign_WithoutPropagation(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	groceries := db.MustCreateCategory("Groceries", nil)

	reference := statementTxn(t, "15/06/2024", "TESCO STORES 3456")
	similarTxn := statementTxn(t, "20/06/2024", "TESCO STORES 9921")
	db.MustSaveTransactions(reference, similarTxn)

	assigner := NewAssigner(db.Storage, similarity.NewFinder(0), true)
	result, err := assigner.Assign(ctx, reference.ID, groceries.ID, false)
	require.NoError(t, err)
	assert.Zero(t, result.SimilarUpdated)

	got, err := db.Storage.GetTransactionByID(ctx, similarTxn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNone, got.Status)
}

func TestAssigner_Assign_Reassignment(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	groceries := db.MustCreateCategory("Groceries", nil)
	household := db.MustCreateCategory("Household", nil)

	reference := statementTxn(t, "15/06/2024", "TESCO STORES 3456")
	db.MustSaveTransactions(reference)

	assigner := NewAssigner(db.Storage, similarity.NewFinder(0), true)
	_, err := assigner.Assign(ctx, reference.ID, groceries.ID, false)
	require.NoError(t, err)
	_, err = assigner.Assign(ctx, reference.ID, household.ID, false)
	require.NoError(t, err)

	link, err := db.Storage.GetCategoryLink(ctx, reference.ID)
	require.NoError(t, err)
	assert.Equal(t, household.ID, link.CategoryID)
}

func TestAssigner_Assign_UnknownIDs(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	groceries := db.MustCreateCategory("Groceries", nil)

	reference := statementTxn(t, "15/06/2024", "TESCO STORES 3456")
	db.MustSaveTransactions(reference)

	assigner := NewAssigner(db.Storage, similarity.NewFinder(0), true)

	_, err := assigner.Assign(ctx, "missing", groceries.ID, false)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = assigner.Assign(ctx, reference.ID, 999, false)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// The failed category lookup must not have mutated the transaction
	got, err := db.Storage.GetTransactionByID(ctx, reference.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNone, got.Status)
}

func TestAssigner_Remove(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	groceries := db.MustCreateCategory("Groceries", nil)

	reference := statementTxn(t, "15/06/2024", "TESCO STORES 3456")
	db.MustSaveTransactions(reference)

	assigner := NewAssigner(db.Storage, similarity.NewFinder(0), true)
	_, err := assigner.Assign(ctx, reference.ID, groceries.ID, false)
	require.NoError(t, err)

	require.NoError(t, assigner.Remove(ctx, reference.ID))

	got, err := db.Storage.GetTransactionByID(ctx, reference.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNone, got.Status)
	assert.Nil(t, got.CategoryID)

	assert.ErrorIs(t, assigner.Remove(ctx, "missing"), common.ErrNotFound)
}
