package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const (
	testCategoryID = "2f0c6f1e-3a6b-4c1d-9a55-6d7f1f0b2a01"
	testStudentID  = "8b1d2c3e-4f5a-4b6c-8d7e-9f0a1b2c3d4e"
)

func validInput() TransactionInput {
	return TransactionInput{
		Type:          "INCOME",
		Date:          "2026-02-19",
		Amount:        "15000.00",
		CategoryID:    testCategoryID,
		StudentID:     testStudentID,
		PaymentMethod: "CASH",
	}
}

func TestTransactionInputParse(t *testing.T) {
	got, err := validInput().Parse()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if got.Type != Income || got.PaymentMethod != Cash {
		t.Fatalf("unexpected enums %s/%s", got.Type, got.PaymentMethod)
	}
	if !got.Date.Equal(NewDate(2026, 2, 19)) {
		t.Fatalf("unexpected date %s", got.Date)
	}
	if got.Amount.String() != "15000.00" {
		t.Fatalf("unexpected amount %s", got.Amount)
	}
	if got.IsVoided {
		t.Fatalf("parsed input must not be voided")
	}
}

func TestTransactionInputParseErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*TransactionInput)
		msg    string
	}{
		{"bad type", func(in *TransactionInput) { in.Type = "REFUND" }, "Invalid transaction type"},
		{"missing date", func(in *TransactionInput) { in.Date = "" }, "Date is required"},
		{"bad date format", func(in *TransactionInput) { in.Date = "19/02/2026" }, "Date must be in YYYY-MM-DD format"},
		{"impossible date", func(in *TransactionInput) { in.Date = "2026-02-30" }, "Date must be in YYYY-MM-DD format"},
		{"zero amount", func(in *TransactionInput) { in.Amount = "0.00" }, "Amount must be a positive number"},
		{"negative amount", func(in *TransactionInput) { in.Amount = "-5.00" }, "Amount must be a positive number"},
		{"category not uuid", func(in *TransactionInput) { in.CategoryID = "tuition" }, "Invalid category"},
		{"student not uuid", func(in *TransactionInput) { in.StudentID = "42" }, "Invalid student"},
		{"bad payment method", func(in *TransactionInput) { in.PaymentMethod = "CHEQUE" }, "Invalid payment method"},
		{"long reference", func(in *TransactionInput) { in.ReferenceNumber = strings.Repeat("r", 101) }, "Reference number is too long"},
		{"long description", func(in *TransactionInput) { in.Description = strings.Repeat("d", 501) }, "Description is too long"},
		{"first failing field wins", func(in *TransactionInput) { in.Type = ""; in.Amount = "" }, "Invalid transaction type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := in.Parse()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation kind, got %v", err)
			}
			if Message(err) != tc.msg {
				t.Fatalf("message = %q, want %q", Message(err), tc.msg)
			}
		})
	}
}

func TestTransactionInputOptionalFields(t *testing.T) {
	in := validInput()
	in.StudentID = ""
	in.ReferenceNumber = strings.Repeat("r", 100)
	in.Description = strings.Repeat("é", 500)
	if _, err := in.Parse(); err != nil {
		t.Fatalf("limits are inclusive and count characters: %v", err)
	}
}

func TestCategoryInputParse(t *testing.T) {
	cases := []struct {
		in  CategoryInput
		msg string
	}{
		{CategoryInput{Name: "Tuition Fee", Type: "INCOME"}, ""},
		{CategoryInput{Name: "  ", Type: "INCOME"}, "Category name is required"},
		{CategoryInput{Name: strings.Repeat("n", 101), Type: "EXPENSE"}, "Category name is too long"},
		{CategoryInput{Name: "Salary", Type: "SALARY"}, "Invalid category type"},
	}
	for i, tc := range cases {
		_, err := tc.in.Parse()
		if tc.msg == "" {
			if err != nil {
				t.Fatalf("case %d expected ok, got %v", i, err)
			}
			continue
		}
		if Message(err) != tc.msg {
			t.Fatalf("case %d message = %q, want %q", i, Message(err), tc.msg)
		}
	}
}

func TestStudentInputParse(t *testing.T) {
	s, err := StudentInput{Name: "Asha Rai", Class: "5", RollNo: "12"}.Parse()
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if s.Status != StudentActive {
		t.Fatalf("status should default to ACTIVE, got %s", s.Status)
	}

	bads := []struct {
		in  StudentInput
		msg string
	}{
		{StudentInput{Class: "5", RollNo: "1"}, "Student name is required"},
		{StudentInput{Name: strings.Repeat("n", 151), Class: "5", RollNo: "1"}, "Name is too long"},
		{StudentInput{Name: "A", RollNo: "1"}, "Class is required"},
		{StudentInput{Name: "A", Class: strings.Repeat("c", 51), RollNo: "1"}, "Class is too long"},
		{StudentInput{Name: "A", Class: "5"}, "Roll number is required"},
		{StudentInput{Name: "A", Class: "5", RollNo: strings.Repeat("1", 21)}, "Roll number is too long"},
		{StudentInput{Name: "A", Class: "5", RollNo: "1", Status: "GRADUATED"}, "Invalid student status"},
	}
	for i, tc := range bads {
		_, err := tc.in.Parse()
		if Message(err) != tc.msg {
			t.Fatalf("case %d message = %q, want %q", i, Message(err), tc.msg)
		}
	}
}

func TestDateHelpers(t *testing.T) {
	d := NewDate(2024, 2, 10)
	if got := d.StartOfMonth().String(); got != "2024-02-01" {
		t.Fatalf("StartOfMonth = %s", got)
	}
	if got := d.EndOfMonth().String(); got != "2024-02-29" {
		t.Fatalf("EndOfMonth = %s (leap year)", got)
	}
	if got := NewDate(2026, 1, 31).AddMonths(-1).String(); got != "2025-12-01" {
		t.Fatalf("AddMonths = %s", got)
	}
	if got := d.MonthLabel(); got != "Feb 2024" {
		t.Fatalf("MonthLabel = %s", got)
	}

	r := MonthRange(d)
	if !r.Contains(NewDate(2024, 2, 1)) || !r.Contains(NewDate(2024, 2, 29)) {
		t.Fatalf("month range bounds are inclusive")
	}
	if r.Contains(NewDate(2024, 3, 1)) {
		t.Fatalf("month range leaked into March")
	}
	if !(DateRange{}).Contains(d) {
		t.Fatalf("open range contains everything")
	}
}

func TestDateOfUsesLocation(t *testing.T) {
	loc := time.FixedZone("NPT", 5*3600+45*60)
	// 20:00 UTC is already the next day in Kathmandu.
	instant := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	if got := DateOf(instant, loc).String(); got != "2026-03-02" {
		t.Fatalf("DateOf = %s, want 2026-03-02", got)
	}
	if got := DateOf(instant, nil).String(); got != "2026-03-01" {
		t.Fatalf("DateOf nil location = %s", got)
	}
}

func TestPageRequestNormalize(t *testing.T) {
	p, err := PageRequest{}.Normalize()
	if err != nil || p.Page != 1 || p.Limit != 20 {
		t.Fatalf("defaults = %+v, %v", p, err)
	}
	if _, err := (PageRequest{Page: -1, Limit: 10}).Normalize(); err == nil {
		t.Fatalf("negative page must fail")
	}
	if _, err := (PageRequest{Page: 1, Limit: 101}).Normalize(); err == nil {
		t.Fatalf("limit over 100 must fail")
	}
	if got := (PageRequest{Page: 3, Limit: 20}).Offset(); got != 40 {
		t.Fatalf("offset = %d", got)
	}
}

func TestNewPageMeta(t *testing.T) {
	cases := []struct {
		total, page, limit int
		want               PageMeta
	}{
		{0, 1, 20, PageMeta{Total: 0, Page: 1, Limit: 20, TotalPages: 0}},
		{45, 1, 20, PageMeta{Total: 45, Page: 1, Limit: 20, TotalPages: 3, HasNext: true}},
		{45, 3, 20, PageMeta{Total: 45, Page: 3, Limit: 20, TotalPages: 3, HasPrev: true}},
		{40, 2, 20, PageMeta{Total: 40, Page: 2, Limit: 20, TotalPages: 2, HasPrev: true}},
	}
	for _, tc := range cases {
		if got := NewPageMeta(tc.total, tc.page, tc.limit); got != tc.want {
			t.Fatalf("NewPageMeta(%d,%d,%d) = %+v, want %+v", tc.total, tc.page, tc.limit, got, tc.want)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("disk full")
	err := Transient("Failed to create transaction. Please try again.", cause)
	if !errors.Is(err, ErrTransient) || !errors.Is(err, cause) {
		t.Fatalf("transient error should match kind and cause")
	}
	if Message(err) != "Failed to create transaction. Please try again." {
		t.Fatalf("message leaked cause: %q", Message(err))
	}
	if Message(errors.New("boom")) == "boom" {
		t.Fatalf("unknown errors must not be shown verbatim")
	}
	if !errors.Is(Conflict("x"), ErrConflict) || errors.Is(Conflict("x"), ErrNotFound) {
		t.Fatalf("kind matching is wrong")
	}
}
