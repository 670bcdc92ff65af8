package amqp

import (
	"encoding/json"
	"time"
)

// AnalysisEvent announces that a statement was analyzed. The payload carries
// only the headline figures; the archiver worker stores these directly and
// never needs the full result.
type AnalysisEvent struct {
	SessionID       string    `json:"session_id"`
	SourceFile      string    `json:"source_file"`
	TotalIncome     float64   `json:"total_income"`
	TotalExpenses   float64   `json:"total_expenses"`
	AvailableIncome float64   `json:"available_income"`
	EnhancedMode    bool      `json:"enhanced_mode"`
	Timestamp       time.Time `json:"timestamp"`
}

// ToJSON converts the event to JSON bytes.
func (e *AnalysisEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// AnalysisEventFromJSON decodes an event from JSON bytes.
func AnalysisEventFromJSON(data []byte) (*AnalysisEvent, error) {
	var e AnalysisEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
