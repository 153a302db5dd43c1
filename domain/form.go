/*
form.go - Typed access into the unstructured application form document

PURPOSE:
  Application forms arrive as free-form JSON documents whose field names
  vary by form version ("loanAmount" vs "loan_amount" vs "amount", top
  level vs nested under "formResponses"). Rather than probing dynamic
  properties ad hoc, callers declare an ordered list of candidate paths
  and the first non-empty value wins.

PATH SYNTAX:
  Dot-separated keys into nested maps: "formResponses.nationalId".

SEE ALSO:
  - commission/engine.go: Loan principal extraction
  - eligibility/router.go: Employer and national-ID extraction
*/
package domain

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Form is the raw key-value form document attached to an application.
type Form map[string]any

// Lookup resolves a dot-separated path into nested maps.
// Returns (nil, false) when any segment is missing or not a map.
func (f Form) Lookup(path string) (any, bool) {
	var current any = map[string]any(f)
	for _, seg := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// FirstString returns the first candidate path that resolves to a
// non-empty string (numbers are stringified). Empty strings are treated
// as absent so that a blank form field does not shadow a later candidate.
func (f Form) FirstString(paths ...string) (string, bool) {
	for _, p := range paths {
		v, ok := f.Lookup(p)
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s, true
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64), true
		case int:
			return strconv.Itoa(s), true
		}
	}
	return "", false
}

// FirstDecimal returns the first candidate path that resolves to a
// parseable, non-empty numeric value.
func (f Form) FirstDecimal(paths ...string) (decimal.Decimal, bool) {
	for _, p := range paths {
		v, ok := f.Lookup(p)
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return decimal.NewFromFloat(n), true
		case int:
			return decimal.NewFromInt(int64(n)), true
		case string:
			if n == "" {
				continue
			}
			if d, err := decimal.NewFromString(n); err == nil {
				return d, true
			}
		}
	}
	return decimal.Zero, false
}

// Bool returns the path's value as a boolean. Only an explicit true
// (or "true") counts; anything else is false.
func (f Form) Bool(path string) bool {
	v, ok := f.Lookup(path)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	}
	return false
}
