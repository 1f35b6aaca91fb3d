package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishReachesScopeSubscribers(t *testing.T) {
	bus := NewBus()

	var postEvents, userEvents []Event
	bus.Subscribe("posts", func(e Event) { postEvents = append(postEvents, e) })
	bus.Subscribe("users", func(e Event) { userEvents = append(userEvents, e) })

	bus.Publish(Event{Scope: "posts", Type: EventInsert, RecordID: "p1"})
	bus.Publish(Event{Scope: "posts", Type: EventDelete, RecordID: "p2"})

	require.Len(t, postEvents, 2)
	assert.Equal(t, EventInsert, postEvents[0].Type)
	assert.Equal(t, "p2", postEvents[1].RecordID)
	assert.Empty(t, userEvents)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()

	calls := 0
	unsub := bus.Subscribe("posts", func(Event) { calls++ })
	require.Equal(t, 1, bus.SubscriberCount("posts"))

	bus.Publish(Event{Scope: "posts", Type: EventUpdate})
	unsub()
	bus.Publish(Event{Scope: "posts", Type: EventUpdate})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.SubscriberCount("posts"))

	// Double unsubscribe is harmless
	unsub()
}

func TestBusMultipleSubscribersAllDelivered(t *testing.T) {
	bus := NewBus()

	var a, b int
	bus.Subscribe("posts", func(Event) { a++ })
	bus.Subscribe("posts", func(Event) { b++ })

	bus.Publish(Event{Scope: "posts", Type: EventInsert})

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

func TestMessageRoundTrip(t *testing.T) {
	msg := NewMessage(MessageTypeFeedRefresh, map[string]interface{}{"seq": float64(3)})
	require.False(t, msg.Timestamp.IsZero())

	var payload map[string]interface{}
	require.NoError(t, msg.ParsePayload(&payload))
	assert.Equal(t, float64(3), payload["seq"])
}
