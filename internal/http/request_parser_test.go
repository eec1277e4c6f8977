package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func TestParseUserID(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    int64
		wantErr bool
	}{
		{"missing means every user", url.Values{}, 0, false},
		{"blank means every user", url.Values{"user": {"  "}}, 0, false},
		{"numeric", url.Values{"user": {"42"}}, 42, false},
		{"not a number", url.Values{"user": {"bob"}}, 0, true},
		{"negative", url.Values{"user": {"-1"}}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUserID(tt.query)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseUserID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errInvalidUser) {
				t.Errorf("error %v does not wrap errInvalidUser", err)
			}
			if got != tt.want {
				t.Errorf("ParseUserID() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseDateQuery(t *testing.T) {
	d, err := ParseDateQuery(url.Values{"from": {"2024-02-29"}}, "from")
	if err != nil || d.String() != "2024-02-29" {
		t.Errorf("ParseDateQuery() = %s, %v", d, err)
	}

	d, err = ParseDateQuery(url.Values{}, "from")
	if err != nil || !d.IsZero() {
		t.Errorf("missing value: got %s, %v", d, err)
	}

	if _, err := ParseDateQuery(url.Values{"to": {"29/02/2024"}}, "to"); err == nil {
		t.Error("expected error for non ISO date")
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "name": "test", "amount": 42.5, "recurring": true}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}

	if id := parser.Get("id"); id != "123" {
		t.Errorf("Get('id') = %q, want '123'", id)
	}

	if amount := parser.Get("amount"); amount != "42.5" {
		t.Errorf("Get('amount') = %q, want '42.5'", amount)
	}

	if !parser.Bool("recurring") {
		t.Error("Bool('recurring') = false, want true")
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "id=456&name=form+test&recurring=on"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}
	if name := parser.Get("name"); name != "form test" {
		t.Errorf("Get('name') = %q, want 'form test'", name)
	}
	if !parser.Bool("recurring") {
		t.Error("Bool('recurring') = false, want true")
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"amount": `))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
	// the error sticks
	if err := parser.Parse(); err == nil {
		t.Fatal("second Parse() should return the same error")
	}
}

func TestRequestBodyParser_Transaction(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		check   func(t *testing.T, tx core.Transaction)
		wantErr string
	}{
		{
			name: "recurring expense",
			body: `{"date":"2024-01-31","amount":"950.00","user_id":7,"description":"Rent\u0007",
				"type":"expense","recurring":true,"frequency":"MONTHLY","end_date":"2024-12-31"}`,
			check: func(t *testing.T, tx core.Transaction) {
				if tx.Date.String() != "2024-01-31" || tx.UserID != 7 || tx.Description != "Rent" {
					t.Errorf("tx = %+v", tx)
				}
				if tx.Type != core.Expense || tx.Frequency != core.Monthly || tx.EndDate.String() != "2024-12-31" {
					t.Errorf("enums or end date not parsed: %+v", tx)
				}
				if !tx.Amount.Equal(decimal.RequireFromString("950")) {
					t.Errorf("amount = %s", tx.Amount)
				}
			},
		},
		{
			name: "frequency ignored when not recurring",
			body: `{"date":"2024-01-31","amount":12,"description":"Lunch","type":"Expense","frequency":"Daily"}`,
			check: func(t *testing.T, tx core.Transaction) {
				if tx.Recurring || tx.Frequency != "" || !tx.EndDate.IsZero() {
					t.Errorf("tx = %+v", tx)
				}
			},
		},
		{name: "bad date", body: `{"date":"31-01-2024","amount":"1"}`, wantErr: "invalid date"},
		{name: "bad amount", body: `{"date":"2024-01-31","amount":"abc"}`, wantErr: "invalid amount"},
		{name: "bad user", body: `{"date":"2024-01-31","amount":"1","user_id":"x"}`, wantErr: "invalid user"},
		{
			name:    "bad end date",
			body:    `{"date":"2024-01-31","amount":"1","recurring":true,"end_date":"soon"}`,
			wantErr: "invalid end_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(tt.body))
			parser := NewRequestBodyParser(req)
			if err := parser.Parse(); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			tx, err := parser.Transaction()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Transaction() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Transaction() error = %v", err)
			}
			tt.check(t, tx)
		})
	}
}

func TestNormalizeEnum(t *testing.T) {
	tests := map[string]string{
		"":        "",
		"monthly": "Monthly",
		"INCOME":  "Income",
		"wEEKLY":  "Weekly",
	}
	for in, want := range tests {
		if got := normalizeEnum(in); got != want {
			t.Errorf("normalizeEnum(%q) = %q, want %q", in, got, want)
		}
	}
}
