// Package memory is an in-process ledger mirror used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"schoolaccounts/internal/core"
	"schoolaccounts/internal/sheets"
)

type Mirror struct {
	mu    sync.Mutex
	rows  map[string]sheets.Row
	order []string
	// writes counts upserts, including replacements.
	writes int
}

var (
	_ sheets.LedgerMirror = (*Mirror)(nil)
	_ sheets.MirrorReader = (*Mirror)(nil)
)

func New() *Mirror {
	return &Mirror{rows: make(map[string]sheets.Row)}
}

// UpsertTransaction stores the row and returns a synthetic row reference.
func (m *Mirror) UpsertTransaction(_ context.Context, t core.TransactionDetail) (string, error) {
	if t.ID == "" {
		return "", fmt.Errorf("transaction id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[t.ID]; !ok {
		m.order = append(m.order, t.ID)
	}
	m.rows[t.ID] = sheets.RowFromTransaction(t)
	m.writes++
	return "mem:" + strconv.Itoa(m.indexOf(t.ID)+1), nil
}

// ListRows returns the rows dated in year, ordered by date then insertion.
func (m *Mirror) ListRows(_ context.Context, year int) ([]sheets.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strconv.Itoa(year) + "-"
	var out []sheets.Row
	for _, id := range m.order {
		r := m.rows[id]
		if len(r.Date) >= 5 && r.Date[:5] == prefix {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// Row returns the mirrored row for id.
func (m *Mirror) Row(id string) (sheets.Row, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	return r, ok
}

// Writes reports how many upserts were applied.
func (m *Mirror) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *Mirror) indexOf(id string) int {
	for i, v := range m.order {
		if v == id {
			return i
		}
	}
	return -1
}
