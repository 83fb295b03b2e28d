package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolaccounts/internal/core"
)

func TestStudentService_CreateAndUniqueness(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	st, err := f.students.Create(ctx, core.StudentInput{Name: "Sita Rai", Class: "5", RollNo: "12"}, accountant)
	require.NoError(t, err)
	assert.Equal(t, core.StudentActive, st.Status)

	_, err = f.students.Create(ctx, core.StudentInput{Name: "Gita Rai", Class: "5", RollNo: "12"}, accountant)
	assertKind(t, err, core.ErrConflict, "A student with this roll number already exists in this class.")

	// Same roll number in another class is fine.
	_, err = f.students.Create(ctx, core.StudentInput{Name: "Gita Rai", Class: "6", RollNo: "12"}, accountant)
	require.NoError(t, err)

	_, err = f.students.Create(ctx, core.StudentInput{Name: "Hari", Class: "6", RollNo: "1"}, viewer)
	assertKind(t, err, core.ErrUnauthorized, "Access denied")

	_, err = f.students.Create(ctx, core.StudentInput{Class: "6", RollNo: "2"}, accountant)
	assertKind(t, err, core.ErrValidation, "Student name is required")
}

func TestStudentService_UpdateAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, err := f.students.Create(ctx, core.StudentInput{Name: "Anil", Class: "7", RollNo: "2"}, admin)
	require.NoError(t, err)
	_, err = f.students.Create(ctx, core.StudentInput{Name: "Binita", Class: "7", RollNo: "1"}, admin)
	require.NoError(t, err)
	_, err = f.students.Create(ctx, core.StudentInput{Name: "Chiran", Class: "3", RollNo: "9"}, admin)
	require.NoError(t, err)

	updated, err := f.students.Update(ctx, a.ID, core.StudentInput{Name: "Anil K.", Class: "7", RollNo: "2", Status: "INACTIVE"}, accountant)
	require.NoError(t, err)
	assert.Equal(t, core.StudentInactive, updated.Status)
	assert.True(t, a.CreatedAt.Equal(updated.CreatedAt))

	all, err := f.students.List(ctx, core.StudentFilter{}, accountant)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Chiran", "Binita", "Anil K."}, []string{all[0].Name, all[1].Name, all[2].Name})

	active, err := f.students.List(ctx, core.StudentFilter{Status: core.StudentActive, Class: "7"}, accountant)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Binita", active[0].Name)

	found, err := f.students.List(ctx, core.StudentFilter{Search: "chir"}, accountant)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = f.students.List(ctx, core.StudentFilter{Status: "GRADUATED"}, accountant)
	assertKind(t, err, core.ErrValidation, "Invalid student status")

	_, err = f.students.Update(ctx, core.NewID(), core.StudentInput{Name: "X", Class: "1", RollNo: "1"}, accountant)
	assertKind(t, err, core.ErrNotFound, "Student not found")
}

func TestStudentService_Transactions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	st, err := f.students.Create(ctx, core.StudentInput{Name: "Sita", Class: "5", RollNo: "1"}, admin)
	require.NoError(t, err)

	in := validInput()
	in.StudentID = st.ID
	in.Date = "2026-01-10"
	_, err = f.txns.Create(ctx, in, accountant)
	require.NoError(t, err)
	in.Date = "2026-02-10"
	newest, err := f.txns.Create(ctx, in, accountant)
	require.NoError(t, err)
	voided, err := f.txns.Create(ctx, in, accountant)
	require.NoError(t, err)
	require.NoError(t, f.txns.Void(ctx, voided, admin))
	f.create(t, core.Income, "2026-02-11", "5", tuitionID)

	got, err := f.students.Transactions(ctx, st.ID, accountant)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newest, got[0].ID)
	assert.Equal(t, "Sita", got[0].StudentName)
	assert.Equal(t, "5", got[0].StudentClass)

	_, err = f.students.Transactions(ctx, core.NewID(), accountant)
	assertKind(t, err, core.ErrNotFound, "Student not found")
}

func TestStudentService_RenameRefreshesReports(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	st, err := f.students.Create(ctx, core.StudentInput{Name: "Sita", Class: "5", RollNo: "1"}, admin)
	require.NoError(t, err)
	in := validInput()
	in.StudentID = st.ID
	_, err = f.txns.Create(ctx, in, accountant)
	require.NoError(t, err)

	recent, err := f.reports.RecentActivity(ctx, 5, viewer)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Sita", recent[0].StudentName)

	_, err = f.students.Update(ctx, st.ID, core.StudentInput{Name: "Sita Sharma", Class: "5", RollNo: "1"}, accountant)
	require.NoError(t, err)

	recent, err = f.reports.RecentActivity(ctx, 5, viewer)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Sita Sharma", recent[0].StudentName)
}

func TestBalanceService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	current, err := f.balances.Current(ctx, viewer)
	require.NoError(t, err)
	assert.Nil(t, current)

	_, err = f.balances.Set(ctx, core.OpeningBalanceInput{Amount: "100", Date: "2026-01-01"}, accountant)
	assertKind(t, err, core.ErrUnauthorized, "Access denied")

	_, err = f.balances.Set(ctx, core.OpeningBalanceInput{Amount: "abc", Date: "2026-01-01"}, admin)
	assertKind(t, err, core.ErrValidation, "Amount must be a positive number")

	_, err = f.balances.Set(ctx, core.OpeningBalanceInput{Amount: "100", Date: "2026-01-01"}, admin)
	require.NoError(t, err)
	_, err = f.balances.Set(ctx, core.OpeningBalanceInput{Amount: "250", Date: "2025-12-01", Note: "backfill"}, admin)
	require.NoError(t, err)

	// The most recent by date wins, not the most recently entered.
	current, err = f.balances.Current(ctx, viewer)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "100.00", current.Amount.String())
}
