package nats

import (
	"testing"
	"time"

	"library-assistant-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePrefersHeaders(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	h := nats.Header{}
	h.Set(typeHeader, events.AssistantTurnCompleted)
	h.Set(timeHeader, at.Format(time.RFC3339Nano))

	ev, err := Decode(Subject("something.else"), h, []byte(`{"channel":"library","action":"AVAILABILITY"}`))
	require.NoError(t, err)

	assert.Equal(t, events.AssistantTurnCompleted, ev.EventType())
	assert.True(t, at.Equal(ev.Timestamp()))
	assert.Equal(t, "library", ev.Payload()["channel"])
}

func TestDecodeFallsBackToSubject(t *testing.T) {
	ev, err := Decode(Subject(events.DocumentIndexed), nil, []byte(`{"document_id":"d-1"}`))
	require.NoError(t, err)
	assert.Equal(t, events.DocumentIndexed, ev.EventType())
	assert.False(t, ev.Timestamp().IsZero())
}

func TestDecodeRejectsInvalidPayload(t *testing.T) {
	_, err := Decode("events.X", nil, []byte("not json"))
	assert.Error(t, err)
}
