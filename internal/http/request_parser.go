// Package http exposes the ledger services as a JSON API.
//
// This file implements utilities for parsing and validating request bodies
// and query strings so handlers stay free of string plumbing.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"schoolaccounts/internal/core"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 64 << 10

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(p.err, &tooLarge) {
			p.err = core.Validation("Request body is too large")
		}
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil || p.jsonData == nil {
			p.jsonData = nil
			p.err = core.Validation("Request body is not valid JSON")
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	if p.err != nil {
		p.err = core.Validation("Request body is not valid form data")
	}
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string. Numbers keep their
// literal form so amounts are never rounded through float64.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// TransactionInput reads the transaction fields.
func (p *RequestBodyParser) TransactionInput() core.TransactionInput {
	return core.TransactionInput{
		Type:            p.Get("type"),
		Date:            p.Get("date"),
		Amount:          p.Get("amount"),
		CategoryID:      p.Get("categoryId"),
		StudentID:       p.Get("studentId"),
		PaymentMethod:   p.Get("paymentMethod"),
		ReferenceNumber: p.Get("referenceNumber"),
		Description:     p.Get("description"),
	}
}

// CategoryInput reads the category fields.
func (p *RequestBodyParser) CategoryInput() core.CategoryInput {
	return core.CategoryInput{Name: p.Get("name"), Type: p.Get("type")}
}

// StudentInput reads the student fields.
func (p *RequestBodyParser) StudentInput() core.StudentInput {
	return core.StudentInput{
		Name:   p.Get("name"),
		Class:  p.Get("class"),
		RollNo: p.Get("rollNo"),
		Status: p.Get("status"),
	}
}

// OpeningBalanceInput reads the opening balance fields.
func (p *RequestBodyParser) OpeningBalanceInput() core.OpeningBalanceInput {
	return core.OpeningBalanceInput{
		Amount: p.Get("amount"),
		Date:   p.Get("date"),
		Note:   p.Get("note"),
	}
}

// ParseTransactionFilter reads list filters from the query string.
func ParseTransactionFilter(q url.Values) (core.TransactionFilter, error) {
	var f core.TransactionFilter
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		f.Type = core.TransactionType(strings.ToUpper(v))
		if !f.Type.IsValid() {
			return f, core.Validation("Invalid transaction type")
		}
	}
	if v := strings.TrimSpace(q.Get("paymentMethod")); v != "" {
		f.PaymentMethod = core.PaymentMethod(strings.ToUpper(v))
		if !f.PaymentMethod.IsValid() {
			return f, core.Validation("Invalid payment method")
		}
	}
	f.CategoryID = strings.TrimSpace(q.Get("categoryId"))
	if f.CategoryID != "" && !core.IsUUID(f.CategoryID) {
		return f, core.Validation("Invalid category")
	}
	f.StudentID = strings.TrimSpace(q.Get("studentId"))
	if f.StudentID != "" && !core.IsUUID(f.StudentID) {
		return f, core.Validation("Invalid student")
	}

	var err error
	if f.Range.From, err = ParseDateQuery(q, "from", core.Date{}); err != nil {
		return f, err
	}
	if f.Range.To, err = ParseDateQuery(q, "to", core.Date{}); err != nil {
		return f, err
	}
	if !f.Range.From.IsZero() && !f.Range.To.IsZero() && f.Range.To.Before(f.Range.From) {
		return f, core.Validation("End date must not be before start date")
	}
	return f, nil
}

// ParsePageRequest reads page and limit; the service normalizes them.
func ParsePageRequest(q url.Values) (core.PageRequest, error) {
	page, err := ParseIntQuery(q, "page", 0)
	if err != nil {
		return core.PageRequest{}, err
	}
	limit, err := ParseIntQuery(q, "limit", 0)
	if err != nil {
		return core.PageRequest{}, err
	}
	return core.PageRequest{Page: page, Limit: limit}, nil
}

// ParseStudentFilter reads student list filters.
func ParseStudentFilter(q url.Values) core.StudentFilter {
	return core.StudentFilter{
		Class:  sanitizeInput(q.Get("class")),
		Status: core.StudentStatus(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
		Search: sanitizeInput(q.Get("search")),
	}
}

// ParseDateQuery returns the YYYY-MM-DD value of key, or def when absent.
func ParseDateQuery(q url.Values, key string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	return core.ParseDate(v)
}

// ParseIntQuery returns the integer value of key, or def when absent.
func ParseIntQuery(q url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Validation("Invalid " + key + " parameter")
	}
	return n, nil
}
