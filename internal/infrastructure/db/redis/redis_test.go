package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	assert.Error(t, err)
}

func TestVerifiedEmails_Lifecycle(t *testing.T) {
	mr, client := newTestRedis(t)
	ledger := NewVerifiedEmails(client, 0)
	ctx := context.Background()

	ok, err := ledger.IsVerified(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ledger.MarkVerified(ctx, "a@x.com"))
	ok, _ = ledger.IsVerified(ctx, "a@x.com")
	assert.True(t, ok)
	assert.Equal(t, DefaultVerifiedEmailTTL, mr.TTL("otp:verified:a@x.com"))

	require.NoError(t, ledger.Consume(ctx, "a@x.com"))
	ok, _ = ledger.IsVerified(ctx, "a@x.com")
	assert.False(t, ok)
}

func TestVerifiedEmails_Expires(t *testing.T) {
	mr, client := newTestRedis(t)
	ledger := NewVerifiedEmails(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, ledger.MarkVerified(ctx, "a@x.com"))
	mr.FastForward(time.Minute + time.Second)

	ok, err := ledger.IsVerified(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEventPublisher_Publish(t *testing.T) {
	_, client := newTestRedis(t)
	pub := NewEventPublisher(client, "")
	ctx := context.Background()

	sub := client.Subscribe(ctx, DefaultEventsChannel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	require.NoError(t, pub.Publish(ctx, domain.Event{
		Type:      domain.EventUserRegistered,
		SubjectID: "u1",
		At:        at,
	}))

	select {
	case msg := <-sub.Channel():
		var got domain.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, domain.EventUserRegistered, got.Type)
		assert.Equal(t, "u1", got.SubjectID)
		assert.True(t, at.Equal(got.At))
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestPinger(t *testing.T) {
	mr, client := newTestRedis(t)
	p := Pinger{Client: client}

	assert.NoError(t, p.Ping(context.Background()))
	mr.Close()
	assert.Error(t, p.Ping(context.Background()))
}
