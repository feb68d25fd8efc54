package amqp

import (
	"testing"
	"time"
)

func TestNewReportMessage(t *testing.T) {
	msg := NewReportMessage(42, 2021, 2, "Cash Report", "text", "<p>html</p>", -6500, 263401, 313401)

	if msg.RunID != 42 {
		t.Errorf("NewReportMessage() RunID = %v, want 42", msg.RunID)
	}
	if msg.Year != 2021 || msg.Month != 2 {
		t.Errorf("NewReportMessage() period = %d-%d, want 2021-2", msg.Year, msg.Month)
	}
	if msg.SpentCents != -6500 || msg.RemainingCF != 263401 || msg.RemainingNW != 313401 {
		t.Errorf("NewReportMessage() amounts = %d/%d/%d", msg.SpentCents, msg.RemainingCF, msg.RemainingNW)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewReportMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewReportMessage() Timestamp should be recent")
	}
}

func TestReportMessage_JSON(t *testing.T) {
	timestamp := time.Date(2021, 2, 10, 7, 0, 0, 0, time.UTC)
	msg := &ReportMessage{
		RunID:       7,
		Year:        2021,
		Month:       2,
		Subject:     "Cash Report",
		TextBody:    "2 items:",
		HTMLBody:    "2 items:<br>",
		SpentCents:  -6500,
		RemainingCF: 263401,
		RemainingNW: 313401,
		Timestamp:   timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsedMsg, err := ReportMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ReportMessageFromJSON() error = %v", err)
	}

	if parsedMsg.RunID != msg.RunID {
		t.Errorf("Parsed RunID = %v, want %v", parsedMsg.RunID, msg.RunID)
	}
	if parsedMsg.TextBody != msg.TextBody || parsedMsg.HTMLBody != msg.HTMLBody {
		t.Errorf("Parsed bodies = %q, %q", parsedMsg.TextBody, parsedMsg.HTMLBody)
	}
	if parsedMsg.RemainingNW != msg.RemainingNW {
		t.Errorf("Parsed RemainingNW = %v, want %v", parsedMsg.RemainingNW, msg.RemainingNW)
	}
	if !parsedMsg.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsedMsg.Timestamp, msg.Timestamp)
	}
}

func TestReportMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"run_id": "not_a_number"}`)

	if _, err := ReportMessageFromJSON(invalidJSON); err == nil {
		t.Error("ReportMessageFromJSON() should fail with invalid JSON")
	}
}
