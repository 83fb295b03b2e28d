// Package sheets declares the spreadsheet mirror port. The ledger store stays
// authoritative; the mirror is a read-only copy for staff who work in
// spreadsheets.
package sheets

import (
	"context"

	"schoolaccounts/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerMirror keeps one row per transaction.
	LedgerMirror interface {
		// UpsertTransaction writes t, replacing any row that already carries
		// t.ID, and returns a reference to the row.
		UpsertTransaction(ctx context.Context, t core.TransactionDetail) (rowRef string, err error)
	}

	// MirrorReader returns the rows mirrored for a calendar year.
	MirrorReader interface {
		ListRows(ctx context.Context, year int) ([]Row, error)
	}
)

// Header is the first row of every mirror sheet.
var Header = []string{
	"ID", "Date", "Type", "Category", "Student", "Class", "Payment Method",
	"Reference", "Description", "Amount", "Status", "Version", "Created By",
}

// Row is the flattened form of a transaction as it appears in the sheet.
type Row struct {
	ID            string
	Date          string
	Type          string
	Category      string
	Student       string
	Class         string
	PaymentMethod string
	Reference     string
	Description   string
	Amount        string
	Status        string
	Version       int64
	CreatedBy     string
}

// Row status values.
const (
	StatusActive = "ACTIVE"
	StatusVoided = "VOIDED"
)

// RowFromTransaction flattens t for the sheet. Amounts keep their exact
// decimal form.
func RowFromTransaction(t core.TransactionDetail) Row {
	status := StatusActive
	if t.IsVoided {
		status = StatusVoided
	}
	return Row{
		ID:            t.ID,
		Date:          t.Date.String(),
		Type:          string(t.Type),
		Category:      t.CategoryName,
		Student:       t.StudentName,
		Class:         t.StudentClass,
		PaymentMethod: string(t.PaymentMethod),
		Reference:     t.ReferenceNumber,
		Description:   t.Description,
		Amount:        t.Amount.String(),
		Status:        status,
		Version:       t.Version,
		CreatedBy:     t.CreatedByName,
	}
}
