package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical, versioned envelope consumers of the node event
// stream deserialize. This package is generated-contract-only and must stay
// backward compatible; SequenceNumber is the consumer-side dedup key since
// delivery is at-least-once.
type Envelope struct {
	EventID        string          `json:"event_id"`
	EventType      string          `json:"event_type"`
	SequenceNumber int64           `json:"sequence_number"`
	SourceService  string          `json:"source_service"`
	ObservedAtUTC  time.Time       `json:"observed_at_utc"`
	PayloadVersion int             `json:"payload_version"`
	Payload        json.RawMessage `json:"payload"`
}
