package core

// Summary holds income, expense and their difference for a period.
type Summary struct {
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Net     Money `json:"net"`
}

// NewSummary derives Net so it always equals Income - Expense exactly.
func NewSummary(income, expense Money) Summary {
	return Summary{Income: income, Expense: expense, Net: income.Sub(expense)}
}

// MonthPoint is one element of the monthly income/expense series.
type MonthPoint struct {
	Label   string `json:"month"` // e.g. "Aug 2025"
	Year    int    `json:"year"`
	Month   int    `json:"monthNumber"`
	Income  Money  `json:"income"`
	Expense Money  `json:"expense"`
}

// CategorySum is a raw per-category total as returned by a store.
type CategorySum struct {
	CategoryID string
	Amount     Money
}

// CategoryTotal is a per-category total resolved to a display name.
type CategoryTotal struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Type       TransactionType `json:"type"`
	Amount     Money           `json:"amount"`
}

// UnknownCategory labels sums whose category can no longer be resolved.
const UnknownCategory = "Unknown"

// Dashboard bundles the views shown on the landing page.
type Dashboard struct {
	Today     Summary             `json:"today"`
	Month     Summary             `json:"month"`
	Balance   Money               `json:"balance"`
	Chart     []MonthPoint        `json:"chart"`
	Breakdown []CategoryTotal     `json:"breakdown"`
	Recent    []TransactionDetail `json:"recent"`
}

// Report bundles the all-time views of the reports page.
type Report struct {
	Totals        Summary         `json:"totals"`
	Chart         []MonthPoint    `json:"chart"`
	TopCategories []CategoryTotal `json:"topCategories"`
}
