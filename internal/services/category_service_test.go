package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolaccounts/internal/core"
)

func TestCategoryService_CreateAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.cats.Create(ctx, core.CategoryInput{Name: " Sports Fee ", Type: "INCOME"}, accountant)
	require.NoError(t, err)
	assert.Equal(t, "Sports Fee", c.Name)
	assert.True(t, core.IsUUID(c.ID))

	_, err = f.cats.Create(ctx, core.CategoryInput{Name: "Sports Fee", Type: "EXPENSE"}, admin)
	assertKind(t, err, core.ErrConflict, "A category with this name already exists.")

	_, err = f.cats.Create(ctx, core.CategoryInput{Name: "", Type: "INCOME"}, admin)
	assertKind(t, err, core.ErrValidation, "Category name is required")

	_, err = f.cats.Create(ctx, core.CategoryInput{Name: "Misc", Type: "INCOME"}, viewer)
	assertKind(t, err, core.ErrUnauthorized, "Access denied")

	cats, err := f.cats.List(ctx, accountant)
	require.NoError(t, err)
	assert.Len(t, cats, 9)
	// Ordered by type, then name.
	assert.Equal(t, core.Expense, cats[0].Type)
	assert.Equal(t, core.Income, cats[len(cats)-1].Type)
	assert.Equal(t, "Tuition Fee", cats[len(cats)-1].Name)
}

func TestCategoryService_UpdateRenamesInReports(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, core.Income, "2026-02-01", "500", tuitionID)

	before, err := f.reports.CategoryBreakdown(ctx, core.NewDate(2026, 2, 1), viewer)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.Equal(t, "Tuition Fee", before[0].Name)

	_, err = f.cats.Update(ctx, tuitionID, core.CategoryInput{Name: "Monthly Tuition", Type: "INCOME"}, accountant)
	assertKind(t, err, core.ErrUnauthorized, "Only admins can edit categories")

	updated, err := f.cats.Update(ctx, tuitionID, core.CategoryInput{Name: "Monthly Tuition", Type: "INCOME"}, admin)
	require.NoError(t, err)
	assert.Equal(t, tuitionID, updated.ID)

	after, err := f.reports.CategoryBreakdown(ctx, core.NewDate(2026, 2, 1), viewer)
	require.NoError(t, err)
	assert.Equal(t, "Monthly Tuition", after[0].Name)

	_, err = f.cats.Update(ctx, salaryID, core.CategoryInput{Name: "Monthly Tuition", Type: "EXPENSE"}, admin)
	assertKind(t, err, core.ErrConflict, "A category with this name already exists.")

	_, err = f.cats.Update(ctx, core.NewID(), core.CategoryInput{Name: "Other", Type: "EXPENSE"}, admin)
	assertKind(t, err, core.ErrNotFound, "Category not found")
}

func TestCategoryService_DeleteGuardsReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.create(t, core.Income, "2026-02-01", "500", tuitionID)
	f.create(t, core.Income, "2026-02-02", "500", tuitionID)
	require.NoError(t, f.txns.Void(ctx, id, admin))

	err := f.cats.Delete(ctx, tuitionID, accountant)
	assertKind(t, err, core.ErrUnauthorized, "Only admins can delete categories")

	// Voided transactions still count as references.
	err = f.cats.Delete(ctx, tuitionID, admin)
	assertKind(t, err, core.ErrConflict,
		"Cannot delete: 2 transaction(s) use this category. Consider renaming it instead.")
	_, err = f.store.GetCategory(ctx, tuitionID)
	require.NoError(t, err, "category must survive a refused delete")

	require.NoError(t, f.cats.Delete(ctx, examID, admin))
	_, err = f.store.GetCategory(ctx, examID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = f.cats.Delete(ctx, examID, admin)
	assertKind(t, err, core.ErrNotFound, "Category not found")
}
