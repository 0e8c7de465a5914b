package ws

import (
	"encoding/json"
	"time"
)

// EventAuditEntry is sent for every committed audit log entry.
const EventAuditEntry = "audit.entry"

// Event is the structured message sent to WebSocket clients.
type Event struct {
	Type     string          `json:"type"`
	TenantID string          `json:"-"`
	Data     json.RawMessage `json:"data"`
	Time     time.Time       `json:"time"`
}
