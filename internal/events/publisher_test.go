package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit_RecordsEnvelope(t *testing.T) {
	rec := &RecordingPublisher{}
	userID := uuid.New()

	err := Emit(context.Background(), rec, TypeBadgeUnlocked, userID, map[string]string{"badge_id": "workouts_1"})
	require.NoError(t, err)

	require.Len(t, rec.Events, 1)
	evt := rec.Events[0]
	assert.Equal(t, TypeBadgeUnlocked, evt.Type)
	assert.Equal(t, userID, evt.UserID)
	assert.NotEmpty(t, evt.ID)
	assert.False(t, evt.OccurredAt.IsZero())

	var payload map[string]string
	require.NoError(t, json.Unmarshal(evt.Payload, &payload))
	assert.Equal(t, "workouts_1", payload["badge_id"])
}

func TestNewEvent_UnmarshalablePayload(t *testing.T) {
	_, err := NewEvent(TypeLevelUp, uuid.New(), make(chan int))
	assert.Error(t, err)
}

func TestNew_NoBrokersIsNop(t *testing.T) {
	p := New(nil, "topic")
	_, ok := p.(NopPublisher)
	assert.True(t, ok)
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}
