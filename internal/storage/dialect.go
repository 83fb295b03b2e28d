package storage

import (
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect captures what differs between the supported SQL engines.
// InsertOrder names a transactions column that grows with every insert; it
// breaks ties between rows created in the same instant. SQLite uses the
// implicit rowid, which stays monotonic because transactions are never
// deleted.
type Dialect struct {
	Name        string
	Driver      string
	Placeholder squirrel.PlaceholderFormat
	InsertOrder string
}

var (
	SQLite   = Dialect{Name: "sqlite", Driver: "sqlite", Placeholder: squirrel.Question, InsertOrder: "rowid"}
	Postgres = Dialect{Name: "postgres", Driver: "postgres", Placeholder: squirrel.Dollar, InsertOrder: "seq"}
)

const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err comes from a UNIQUE or PRIMARY KEY
// constraint in either engine.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == pgUniqueViolation
	}
	return false
}
