package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Source identifies this service in emitted CloudEvents.
const Source = "service-booking"

// CloudEvent is the CloudEvents 1.0 JSON envelope carried on every topic.
type CloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	Type            string          `json:"type"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`
}

// NewCloudEvent wraps data in an envelope with a fresh id.
func NewCloudEvent(source, eventType string, data any) (CloudEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return CloudEvent{}, fmt.Errorf("marshal %s data: %w", eventType, err)
	}
	return CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.NewString(),
		Source:          source,
		Type:            eventType,
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            raw,
	}, nil
}

// ParseData decodes the payload into v.
func (e CloudEvent) ParseData(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no data", e.ID)
	}
	return json.Unmarshal(e.Data, v)
}
