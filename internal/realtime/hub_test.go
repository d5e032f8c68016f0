package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHubDeliversToEveryConnection(t *testing.T) {
	hub := NewHub()

	first, closeFirst := hub.Register(7)
	second, closeSecond := hub.Register(7)
	defer closeSecond()
	require.Equal(t, 2, hub.Connections(7))

	event, err := NewEvent("answer_received", map[string]interface{}{"id": 1})
	require.NoError(t, err)
	require.True(t, hub.Deliver(7, event))

	require.Equal(t, "answer_received", (<-first).Name)
	require.JSONEq(t, `{"id":1}`, string((<-second).Data))

	closeFirst()
	closeFirst()
	_, open := <-first
	require.False(t, open, "cleanup closes the channel")
	require.Equal(t, 1, hub.Connections(7))
}

func TestHubDeliverReportsOfflineUsers(t *testing.T) {
	hub := NewHub()
	require.False(t, hub.Deliver(42, Event{Name: "system"}))
	require.Zero(t, hub.Connections(42))
}

func TestHubDropsEventsForSlowConsumers(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Register(1)
	defer cleanup()

	for i := 0; i < subscriberBufferSize; i++ {
		require.True(t, hub.Deliver(1, Event{Name: "vote_received"}))
	}
	require.False(t, hub.Deliver(1, Event{Name: "vote_received"}), "full buffer must not block")
	require.Len(t, ch, subscriberBufferSize)
}
