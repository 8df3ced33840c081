package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillPublisher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := NewInProcessPubSub(watermill.NopLogger{})
	defer pubSub.Close()

	logins, err := pubSub.Subscribe(ctx, LoginTopic)
	require.NoError(t, err)
	logouts, err := pubSub.Subscribe(ctx, LogoutTopic)
	require.NoError(t, err)

	pub := NewWatermillPublisher(pubSub)
	require.NoError(t, pub.PublishLogin(ctx, "0xabc", "sid-1"))
	require.NoError(t, pub.PublishLogout(ctx, "0xabc", "sid-1"))

	for _, ch := range []<-chan *message.Message{logins, logouts} {
		select {
		case msg := <-ch:
			var event SessionEvent
			require.NoError(t, json.Unmarshal(msg.Payload, &event))
			assert.Equal(t, "0xabc", event.Address)
			assert.Equal(t, "sid-1", event.SessionID)
			msg.Ack()
		case <-time.After(2 * time.Second):
			t.Fatal("event not delivered")
		}
	}
}
