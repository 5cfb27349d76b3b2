package queue

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublishing(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	msg, err := newPublishing(PostEvent{
		Type:      PostCreatedKey,
		PostID:    "65e1f0c2a1b2c3d4e5f60718",
		CreatorID: "user-1",
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, PostCreatedKey, msg.Type)
	assert.Equal(t, now, msg.Timestamp)
	assert.JSONEq(t, `{"type":"post_created","post_id":"65e1f0c2a1b2c3d4e5f60718","creator_id":"user-1","tags":[]}`, string(msg.Body))
}
