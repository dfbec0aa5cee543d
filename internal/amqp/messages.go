package amqp

import (
	"encoding/json"
	"time"
)

// Entity types that can be exported.
const (
	EntityOrphan        = "orphan"
	EntityDeceased      = "deceased"
	EntityGuardian      = "guardian"
	EntityMonthlyMinors = "monthly_minors"
)

// ReportExportMessage asks the worker to build and export a report.
// It carries only the entity reference; the worker fetches fresh data
// from the database when it processes the message.
type ReportExportMessage struct {
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id,omitempty"`
	Months     int       `json:"months,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewReportExportMessage creates an export request for a single entity.
func NewReportExportMessage(entityType string, entityID int64) *ReportExportMessage {
	return &ReportExportMessage{
		EntityType: entityType,
		EntityID:   entityID,
		Timestamp:  time.Now(),
	}
}

// NewMonthlyMinorsMessage creates an export request for the monthly
// minors report covering the given number of trailing months.
func NewMonthlyMinorsMessage(months int) *ReportExportMessage {
	return &ReportExportMessage{
		EntityType: EntityMonthlyMinors,
		Months:     months,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func ReportExportMessageFromJSON(data []byte) (*ReportExportMessage, error) {
	var msg ReportExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
