package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/alerts"
)

// BudgetAlertMessage carries one threshold alert from the API server to
// the notification worker. The full alert rides along so the worker
// never has to re-derive budget state.
type BudgetAlertMessage struct {
	Alert     alerts.Alert `json:"alert"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewBudgetAlertMessage wraps an alert for publishing.
func NewBudgetAlertMessage(a alerts.Alert) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		Alert:     a,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetAlertMessageFromJSON creates a message from JSON bytes
func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
