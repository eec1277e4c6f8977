// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// It reduces code duplication by providing reusable functions for query
// parameters and request bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// maxBodyBytes bounds request bodies read by RequestBodyParser.
const maxBodyBytes = 64 << 10

var errInvalidUser = errors.New("invalid user")

// ParseUserID reads the "user" query parameter. A missing value means every
// user (0).
func ParseUserID(query url.Values) (int64, error) {
	v := strings.TrimSpace(query.Get("user"))
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w %q", errInvalidUser, v)
	}
	return id, nil
}

// ParseDateQuery reads an optional YYYY-MM-DD query parameter. A missing value
// returns the zero date.
func ParseDateQuery(query url.Values, key string) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", key, v)
	}
	return d, nil
}

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
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	// Fall back to form parsing
	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// Bool returns a boolean value; "true", "1" and "on" are true.
func (p *RequestBodyParser) Bool(key string) bool {
	switch strings.ToLower(p.Get(key)) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// Transaction builds a transaction from the parsed body. Field names follow
// the JSON representation returned by the API.
func (p *RequestBodyParser) Transaction() (core.Transaction, error) {
	var t core.Transaction

	date, err := core.ParseDate(p.Get("date"))
	if err != nil {
		return t, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", p.Get("date"))
	}
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return t, fmt.Errorf("invalid amount %q: %w", p.Get("amount"), err)
	}
	if v := p.Get("user_id"); v != "" {
		if t.UserID, err = strconv.ParseInt(v, 10, 64); err != nil || t.UserID < 0 {
			return t, fmt.Errorf("%w %q", errInvalidUser, v)
		}
	}

	t.Date = date
	t.Amount = amount
	t.Description = p.Get("description")
	t.Category = p.Get("category")
	t.Type = core.TransactionType(normalizeEnum(p.Get("type")))
	t.Account = p.Get("account")
	t.Notes = p.Get("notes")
	t.Tags = p.Get("tags")
	t.Recurring = p.Bool("recurring")

	if t.Recurring {
		t.Frequency = core.Frequency(normalizeEnum(p.Get("frequency")))
		if v := p.Get("end_date"); v != "" {
			if t.EndDate, err = core.ParseDate(v); err != nil {
				return t, fmt.Errorf("invalid end_date %q: expected YYYY-MM-DD", v)
			}
		}
	}
	return t, nil
}

// normalizeEnum turns "monthly" or "EXPENSE" into "Monthly" and "Expense".
func normalizeEnum(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToLower(s)
	return strings.ToUpper(s[:1]) + s[1:]
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters other than tab and line breaks.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
