// Package core provides money parsing and handling utilities.
//
// This file contains the Money value type used for every monetary amount in
// the ledger. Amounts are fixed-point decimals at scale 2 and never pass
// through a binary float.
package core

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes amounts rendered for display.
const CurrencySymbol = "Rs."

const moneyScale = 2

var (
	amountPattern  = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	encodedPattern = regexp.MustCompile(`^-?\d+(\.\d{1,2})?$`)
)

// Money is a monetary magnitude with two decimal places.
// The zero value is a valid amount of 0.00.
type Money struct {
	d decimal.Decimal
}

// ParseMoney converts user input to Money.
//
// Only plain positive decimals with at most two fractional digits are accepted:
//
//	ParseMoney("15000")    -> 15000.00, nil
//	ParseMoney("12.5")     -> 12.50, nil
//	ParseMoney("0.00")     -> error (zero)
//	ParseMoney("-5.00")    -> error (signed)
//	ParseMoney("1.234")    -> error (too many decimals)
func ParseMoney(raw string) (Money, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Money{}, Validation("Amount is required")
	}
	if !amountPattern.MatchString(s) {
		return Money{}, Validation("Amount must be a positive number")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, Validation("Amount must be a positive number")
	}
	if !d.IsPositive() {
		return Money{}, Validation("Amount must be a positive number")
	}
	return Money{d: d.Round(moneyScale)}, nil
}

// MustParseMoney is ParseMoney for constants and tests; it panics on bad input.
func MustParseMoney(raw string) Money {
	m, err := ParseMoney(raw)
	if err != nil {
		panic(fmt.Sprintf("core: invalid money literal %q: %v", raw, err))
	}
	return m
}

// MoneyFromMinor builds Money from integer minor units (paisa).
func MoneyFromMinor(minor int64) Money {
	return Money{d: decimal.New(minor, -moneyScale)}
}

// Minor returns the amount in integer minor units, the form used by stores.
func (m Money) Minor() int64 {
	return m.d.Shift(moneyScale).Round(0).IntPart()
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

func (m Money) Neg() Money { return Money{d: m.d.Neg()} }

func (m Money) IsZero() bool { return m.d.IsZero() }

func (m Money) IsPositive() bool { return m.d.IsPositive() }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

// Cmp returns -1, 0 or +1 like decimal.Decimal.Cmp.
func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

// Decimal exposes the underlying decimal for callers that need to compute ratios.
func (m Money) Decimal() decimal.Decimal { return m.d }

// String returns the plain fixed-point form, e.g. "15000.00".
func (m Money) String() string {
	return m.d.StringFixed(moneyScale)
}

// Validate reports whether the amount is usable as a transaction amount.
func (m Money) Validate() error {
	if !m.IsPositive() {
		return Validation("Amount must be a positive number")
	}
	return nil
}

// Display formats the amount with the currency symbol and South Asian digit
// grouping: 150000 -> "Rs. 1,50,000.00".
func (m Money) Display() string {
	return FormatNPR(m)
}

// FormatNPR renders m for people, grouping the integer part as 12,34,567.
func FormatNPR(m Money) string {
	s := m.d.Abs().StringFixed(moneyScale)
	intPart, frac, _ := strings.Cut(s, ".")
	out := CurrencySymbol + " " + groupLakh(intPart) + "." + frac
	if m.IsNegative() {
		return "-" + out
	}
	return out
}

func groupLakh(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}

// Sum adds amounts in any order; fixed-point addition makes the result order independent.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// MarshalJSON encodes Money as a decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes the form MarshalJSON writes. Zero and negative
// values are accepted since nets and balances use Money too; entry amounts
// must go through ParseMoney. More than two decimals is an error, never a
// rounding. Bare JSON numbers are rejected so no amount is decoded through
// a float.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("money must be a JSON string: %w", err)
	}
	s = strings.TrimSpace(s)
	if !encodedPattern.MatchString(s) {
		return fmt.Errorf("parse money %q: want a decimal with at most %d places", s, moneyScale)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("parse money %q: %w", s, err)
	}
	m.d = d
	return nil
}
