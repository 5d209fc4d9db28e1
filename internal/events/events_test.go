package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedEventJSONShape(t *testing.T) {
	event := ClassifiedEvent{
		ID:          "c-123",
		CategoryID:  "roads",
		Confidence:  0.85,
		IsUrgent:    true,
		ServiceName: "Галицька районна адміністрація",
		Timestamp:   time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))

	assert.Equal(t, "c-123", decoded["id"])
	assert.Equal(t, "roads", decoded["category_id"])
	assert.Equal(t, 0.85, decoded["confidence"])
	assert.Equal(t, true, decoded["is_urgent"])
	assert.Equal(t, "Галицька районна адміністрація", decoded["service_name"])
	assert.Contains(t, decoded, "ts")
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.PublishClassified(context.Background(), ClassifiedEvent{ID: "x"}))
	p.Close()
}

func TestNewNATSPublisherUnreachable(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", "zvernennia", nil)
	assert.Error(t, err)
}
