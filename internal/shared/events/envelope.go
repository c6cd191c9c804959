package events

import (
	"encoding/json"
	"time"
)

// Envelope is the wire shape published to the event sink for every node
// event. SequenceNumber is the consumer-side dedup key: delivery is
// at-least-once, never exactly-once.
type Envelope struct {
	EventID        string          `json:"event_id"`
	EventType      string          `json:"event_type"`
	SequenceNumber int64           `json:"sequence_number"`
	SourceService  string          `json:"source_service"`
	ObservedAtUTC  time.Time       `json:"observed_at_utc"`
	PayloadVersion int             `json:"payload_version"`
	Payload        json.RawMessage `json:"payload"`
}
