package auth

import (
	"errors"
	"testing"

	"schoolaccounts/internal/core"
)

func TestRoleMatrix(t *testing.T) {
	cases := []struct {
		op                        Operation
		admin, accountant, viewer bool
	}{
		{TransactionCreate, true, true, false},
		{TransactionUpdate, true, false, false},
		{TransactionVoid, true, false, false},
		{TransactionRead, true, true, false},
		{ReportRead, true, true, true},
		{CategoryRead, true, true, false},
		{CategoryCreate, true, true, false},
		{CategoryUpdate, true, false, false},
		{CategoryDelete, true, false, false},
		{StudentRead, true, true, false},
		{StudentCreate, true, true, false},
		{StudentUpdate, true, true, false},
		{BalanceRead, true, true, true},
		{BalanceSet, true, false, false},
	}
	for _, tc := range cases {
		got := [3]bool{
			DefaultPolicy.Allowed(core.RoleAdmin, tc.op),
			DefaultPolicy.Allowed(core.RoleAccountant, tc.op),
			DefaultPolicy.Allowed(core.RoleViewer, tc.op),
		}
		want := [3]bool{tc.admin, tc.accountant, tc.viewer}
		if got != want {
			t.Fatalf("%s: got %v, want %v", tc.op, got, want)
		}
	}
}

func TestAuthorizeMessages(t *testing.T) {
	accountant := &core.Caller{ID: "u2", Name: "Ram", Role: core.RoleAccountant}
	cases := []struct {
		caller *core.Caller
		op     Operation
		msg    string
	}{
		{nil, ReportRead, "Unauthorized"},
		{&core.Caller{Role: core.RoleAdmin}, ReportRead, "Unauthorized"},
		{accountant, TransactionUpdate, "Only admins can edit transactions"},
		{accountant, TransactionVoid, "Only admins can void transactions"},
		{accountant, CategoryUpdate, "Only admins can edit categories"},
		{accountant, CategoryDelete, "Only admins can delete categories"},
		{accountant, BalanceSet, "Access denied"},
		{&core.Caller{ID: "u3", Role: core.RoleViewer}, TransactionCreate, "Access denied"},
		{accountant, Operation("unknown.op"), "Access denied"},
	}
	for _, tc := range cases {
		err := DefaultPolicy.Authorize(tc.caller, tc.op)
		if !errors.Is(err, core.ErrUnauthorized) {
			t.Fatalf("%s: expected unauthorized, got %v", tc.op, err)
		}
		if core.Message(err) != tc.msg {
			t.Fatalf("%s: message = %q, want %q", tc.op, core.Message(err), tc.msg)
		}
	}
}

func TestUnknownRoleIsDenied(t *testing.T) {
	err := DefaultPolicy.Authorize(&core.Caller{ID: "x", Role: core.Role("SUPERUSER")}, ReportRead)
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("unknown roles must be denied, got %v", err)
	}
}
