package amqp

import (
	"encoding/json"
	"time"
)

// ReportMessage carries one finished report to notification consumers: the
// run id for anyone who wants the stored detail, the headline numbers, and
// the pre-rendered bodies so consumers never re-derive formatting.
type ReportMessage struct {
	RunID       int64     `json:"run_id"`
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	Subject     string    `json:"subject"`
	TextBody    string    `json:"text_body"`
	HTMLBody    string    `json:"html_body"`
	SpentCents  int64     `json:"spent_cents"`
	RemainingCF int64     `json:"remaining_cf_cents"`
	RemainingNW int64     `json:"remaining_nw_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewReportMessage stamps a report message with the current time.
func NewReportMessage(runID int64, year, month int, subject, textBody, htmlBody string, spent, remainingCF, remainingNW int64) *ReportMessage {
	return &ReportMessage{
		RunID:       runID,
		Year:        year,
		Month:       month,
		Subject:     subject,
		TextBody:    textBody,
		HTMLBody:    htmlBody,
		SpentCents:  spent,
		RemainingCF: remainingCF,
		RemainingNW: remainingNW,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportMessageFromJSON creates a message from JSON bytes
func ReportMessageFromJSON(data []byte) (*ReportMessage, error) {
	var msg ReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
