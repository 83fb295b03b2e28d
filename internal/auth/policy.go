// Package auth holds the role policy table and bearer token handling.
package auth

import (
	"schoolaccounts/internal/core"
)

// Operation names a guarded action.
type Operation string

const (
	TransactionCreate Operation = "transaction.create"
	TransactionUpdate Operation = "transaction.update"
	TransactionVoid   Operation = "transaction.void"
	TransactionRead   Operation = "transaction.read"
	ReportRead        Operation = "report.read"
	CategoryRead      Operation = "category.read"
	CategoryCreate    Operation = "category.create"
	CategoryUpdate    Operation = "category.update"
	CategoryDelete    Operation = "category.delete"
	StudentRead       Operation = "student.read"
	StudentCreate     Operation = "student.create"
	StudentUpdate     Operation = "student.update"
	BalanceRead       Operation = "balance.read"
	BalanceSet        Operation = "balance.set"
)

const (
	msgUnauthorized = "Unauthorized"
	msgDenied       = "Access denied"
)

// Rule lists the roles allowed to perform an operation and the message
// shown to everyone else.
type Rule struct {
	Roles   []core.Role
	Message string
}

// Policy maps every operation to its rule. Operations missing from the
// table are denied.
type Policy map[Operation]Rule

var (
	staff = []core.Role{core.RoleAdmin, core.RoleAccountant}
	admin = []core.Role{core.RoleAdmin}
	all   = []core.Role{core.RoleAdmin, core.RoleAccountant, core.RoleViewer}
)

// DefaultPolicy is the school's role table.
var DefaultPolicy = Policy{
	TransactionCreate: {Roles: staff},
	TransactionUpdate: {Roles: admin, Message: "Only admins can edit transactions"},
	TransactionVoid:   {Roles: admin, Message: "Only admins can void transactions"},
	TransactionRead:   {Roles: staff},
	ReportRead:        {Roles: all},
	CategoryRead:      {Roles: staff},
	CategoryCreate:    {Roles: staff},
	CategoryUpdate:    {Roles: admin, Message: "Only admins can edit categories"},
	CategoryDelete:    {Roles: admin, Message: "Only admins can delete categories"},
	StudentRead:       {Roles: staff},
	StudentCreate:     {Roles: staff},
	StudentUpdate:     {Roles: staff},
	BalanceRead:       {Roles: all},
	BalanceSet:        {Roles: admin},
}

// Authorize returns nil when caller may perform op, otherwise an
// authorization error carrying the rule's message.
func (p Policy) Authorize(caller *core.Caller, op Operation) error {
	if caller == nil || caller.ID == "" {
		return core.Unauthorized(msgUnauthorized)
	}
	rule, ok := p[op]
	if ok {
		for _, r := range rule.Roles {
			if caller.Role == r {
				return nil
			}
		}
	}
	if rule.Message != "" {
		return core.Unauthorized(rule.Message)
	}
	return core.Unauthorized(msgDenied)
}

// Allowed reports whether role may perform op.
func (p Policy) Allowed(role core.Role, op Operation) bool {
	return p.Authorize(&core.Caller{ID: "role-check", Role: role}, op) == nil
}
