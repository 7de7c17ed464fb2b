package http

import (
	"net/http/httptest"
	"testing"

	"fintrack/internal/core"
)

func TestPathID(t *testing.T) {
	tests := []struct {
		path     string
		prefix   string
		wantID   int64
		wantTail string
		wantOK   bool
	}{
		{"/api/goals/7", "/api/goals/", 7, "", true},
		{"/api/goals/7/add", "/api/goals/", 7, "/add", true},
		{"/api/goals/", "/api/goals/", 0, "", false},
		{"/api/goals/abc", "/api/goals/", 0, "", false},
		{"/api/goals/0", "/api/goals/", 0, "", false},
		{"/api/goals/-3", "/api/goals/", 0, "", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", tt.path, nil)
		id, tail, ok := pathID(r, tt.prefix)
		if id != tt.wantID || tail != tt.wantTail || ok != tt.wantOK {
			t.Errorf("pathID(%q) = %d, %q, %v; want %d, %q, %v",
				tt.path, id, tail, ok, tt.wantID, tt.wantTail, tt.wantOK)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		query   string
		want    core.PeriodKind
		wantErr bool
	}{
		{"", core.MonthlyPeriod, false},
		{"kind=monthly", core.MonthlyPeriod, false},
		{"kind=weekly", core.WeeklyPeriod, false},
		{"kind=daily", "", true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/api/budgets/progress?"+tt.query, nil)
		kind, err := parseKind(r)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseKind(%q) expected error", tt.query)
			}
			continue
		}
		if err != nil || kind != tt.want {
			t.Errorf("parseKind(%q) = %v, %v; want %v", tt.query, kind, err, tt.want)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  plain  ", "plain"},
		{"tab\tand\nnewline", "tab\tand\nnewline"},
		{"bell\x07char", "bellchar"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
