package models

import (
	"encoding/json"
	"time"
)

// AccountProcessingLog is one historical summarization run for a connected account.
// Fields holds every key exactly as read, last_processed_at included;
// LastProcessedAt is a decoded copy used for ordering.
type AccountProcessingLog struct {
	LastProcessedAt string
	Fields          map[string]json.RawMessage
}

const lastProcessedAtKey = "last_processed_at"

func (l *AccountProcessingLog) UnmarshalJSON(data []byte) error {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	l.LastProcessedAt = ""
	if raw, ok := fields[lastProcessedAtKey]; ok {
		// Null or non-string values stay in Fields and sort as unparseable.
		var ts string
		if json.Unmarshal(raw, &ts) == nil {
			l.LastProcessedAt = ts
		}
	}
	l.Fields = fields
	return nil
}

// MarshalJSON writes Fields back unchanged. LastProcessedAt is only emitted
// for records built in code that carry no raw value.
func (l AccountProcessingLog) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(l.Fields)+1)
	for k, v := range l.Fields {
		out[k] = v
	}
	if _, ok := out[lastProcessedAtKey]; !ok && l.LastProcessedAt != "" {
		ts, err := json.Marshal(l.LastProcessedAt)
		if err != nil {
			return nil, err
		}
		out[lastProcessedAtKey] = ts
	}
	return json.Marshal(out)
}

var processedAtLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ProcessedAt parses LastProcessedAt. ok is false when no known ISO-8601 layout matches.
func (l AccountProcessingLog) ProcessedAt() (t time.Time, ok bool) {
	for _, layout := range processedAtLayouts {
		if parsed, err := time.Parse(layout, l.LastProcessedAt); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// NewerThan orders a before b when a was processed more recently. Records
// with unparseable timestamps sort after all parseable ones and compare
// lexically among themselves, which keeps the ordering a strict weak order.
func (l AccountProcessingLog) NewerThan(other AccountProcessingLog) bool {
	a, okA := l.ProcessedAt()
	b, okB := other.ProcessedAt()
	switch {
	case okA && okB:
		return a.After(b)
	case okA != okB:
		return okA
	default:
		return l.LastProcessedAt > other.LastProcessedAt
	}
}
