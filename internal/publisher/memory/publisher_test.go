package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherAppendsNotifications(t *testing.T) {
	t.Parallel()

	pub := New()
	_, ok := pub.Last()
	assert.False(t, ok)

	id1, err := pub.Publish(context.Background(), "generation.completed", map[string]string{"runId": "a"})
	require.NoError(t, err)
	assert.Equal(t, "local-1", id1)
	id2, err := pub.Publish(context.Background(), "generation.failed", "payload")
	require.NoError(t, err)
	assert.Equal(t, "local-2", id2)

	last, ok := pub.Last()
	require.True(t, ok)
	assert.Equal(t, Notification{ID: "local-2", Event: "generation.failed", Payload: "payload"}, last)

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "generation.completed", msgs[0].Event)

	msgs[0].Event = "modified"
	assert.Equal(t, "generation.completed", pub.Messages()[0].Event, "Messages returns a copy")
}
