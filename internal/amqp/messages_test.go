package amqp

import (
	"strings"
	"testing"
	"time"
)

func TestNewReportExportMessage(t *testing.T) {
	msg := NewReportExportMessage(EntityOrphan, 42)

	if msg.EntityType != EntityOrphan {
		t.Errorf("entity type = %q, want %q", msg.EntityType, EntityOrphan)
	}
	if msg.EntityID != 42 {
		t.Errorf("entity id = %d, want 42", msg.EntityID)
	}
	if msg.Months != 0 {
		t.Errorf("months = %d, want 0", msg.Months)
	}
	if time.Since(msg.Timestamp) > time.Minute {
		t.Errorf("timestamp too old: %v", msg.Timestamp)
	}
}

func TestNewMonthlyMinorsMessage(t *testing.T) {
	msg := NewMonthlyMinorsMessage(6)

	if msg.EntityType != EntityMonthlyMinors {
		t.Errorf("entity type = %q, want %q", msg.EntityType, EntityMonthlyMinors)
	}
	if msg.EntityID != 0 {
		t.Errorf("entity id = %d, want 0", msg.EntityID)
	}
	if msg.Months != 6 {
		t.Errorf("months = %d, want 6", msg.Months)
	}
}

func TestReportExportMessageJSONRoundTrip(t *testing.T) {
	original := NewReportExportMessage(EntityDeceased, 7)

	data, err := original.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "months") {
		t.Errorf("zero months should be omitted, got %s", data)
	}

	decoded, err := ReportExportMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.EntityType != original.EntityType {
		t.Errorf("entity type = %q, want %q", decoded.EntityType, original.EntityType)
	}
	if decoded.EntityID != original.EntityID {
		t.Errorf("entity id = %d, want %d", decoded.EntityID, original.EntityID)
	}
	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("timestamp = %v, want %v", decoded.Timestamp, original.Timestamp)
	}
}

func TestReportExportMessageFromJSONInvalid(t *testing.T) {
	if _, err := ReportExportMessageFromJSON([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
