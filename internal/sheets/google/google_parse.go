package google

import (
	"fmt"
	"strconv"
	"strings"

	ports "schoolaccounts/internal/sheets"
)

// encodeRow lays r out in Header order. Values are written RAW so that
// amounts, dates and reference numbers keep their exact text.
func encodeRow(r ports.Row) []any {
	return []any{
		r.ID, r.Date, r.Type, r.Category, r.Student, r.Class, r.PaymentMethod,
		r.Reference, r.Description, r.Amount, r.Status, strconv.FormatInt(r.Version, 10), r.CreatedBy,
	}
}

// decodeRows converts a values matrix (as returned by Sheets API) into rows,
// skipping blank lines and a header row if present.
func decodeRows(values [][]any) []ports.Row {
	out := make([]ports.Row, 0, len(values))
	for _, raw := range values {
		cells := toStrings(raw)
		id := safeGet(cells, 0)
		if id == "" || id == ports.Header[0] {
			continue
		}
		version, _ := strconv.ParseInt(safeGet(cells, 11), 10, 64)
		out = append(out, ports.Row{
			ID:            id,
			Date:          safeGet(cells, 1),
			Type:          safeGet(cells, 2),
			Category:      safeGet(cells, 3),
			Student:       safeGet(cells, 4),
			Class:         safeGet(cells, 5),
			PaymentMethod: safeGet(cells, 6),
			Reference:     safeGet(cells, 7),
			Description:   safeGet(cells, 8),
			Amount:        safeGet(cells, 9),
			Status:        safeGet(cells, 10),
			Version:       version,
			CreatedBy:     safeGet(cells, 12),
		})
	}
	return out
}

// rowNumber extracts the first row number from an A1 range such as
// "'2026 Ledger'!A5:M5". Returns 0 when none is present.
func rowNumber(rng string) int {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		rng = rng[i+1:]
	}
	if i := strings.Index(rng, ":"); i >= 0 {
		rng = rng[:i]
	}
	digits := strings.TrimLeft(rng, "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz$")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// a1 quotes sheet for use in an A1 range.
func a1(sheet, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), cells)
}

func lastColumn() string {
	return columnName(len(ports.Header))
}

// columnName converts a 1-based column index to its letter form (1=A, 27=AA).
func columnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func toStrings(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(row []string, i int) string {
	if i >= 0 && i < len(row) {
		return row[i]
	}
	return ""
}
