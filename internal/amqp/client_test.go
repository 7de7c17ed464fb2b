package amqp

import (
	"testing"
	"time"

	"fintrack/internal/alerts"
)

func TestNewBudgetAlertMessage(t *testing.T) {
	a := alerts.Alert{
		Severity:   alerts.SeverityWarning,
		Category:   "Groceries",
		Tier:       90,
		Percentage: 92.5,
		PeriodKey:  "2024-03",
		Message:    "Groceries is at 92.5% of its budget",
	}

	msg := NewBudgetAlertMessage(a)

	if msg.Alert != a {
		t.Errorf("NewBudgetAlertMessage() Alert = %+v, want %+v", msg.Alert, a)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewBudgetAlertMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewBudgetAlertMessage() Timestamp should be recent")
	}
}

func TestBudgetAlertMessage_JSON(t *testing.T) {
	timestamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &BudgetAlertMessage{
		Alert: alerts.Alert{
			Severity:   alerts.SeverityError,
			Category:   "Dining",
			Tier:       100,
			Percentage: 104.2,
			PeriodKey:  "2024-03",
			Message:    "Dining has exceeded its budget (104.2%)",
		},
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := BudgetAlertMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("BudgetAlertMessageFromJSON() error = %v", err)
	}

	if parsed.Alert != msg.Alert {
		t.Errorf("Parsed Alert = %+v, want %+v", parsed.Alert, msg.Alert)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestBudgetAlertMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"alert": {"tier": "not_a_number"}}`)

	_, err := BudgetAlertMessageFromJSON(invalidJSON)
	if err == nil {
		t.Error("BudgetAlertMessageFromJSON() should fail with invalid JSON")
	}
}
