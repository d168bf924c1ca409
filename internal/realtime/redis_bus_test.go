package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBus_DeliversUntilCancelled(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	bus := NewRedisBus(rdb, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 4)
	require.NoError(t, bus.Subscribe(ctx, func(msg []byte) { received <- string(msg) }))

	require.NoError(t, bus.Publish(context.Background(), []byte("first")))
	select {
	case msg := <-received:
		assert.Equal(t, "first", msg)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("message not delivered")
	}

	cancel()
	time.Sleep(2 * testPollInterval)

	require.NoError(t, bus.Publish(context.Background(), []byte("after-cancel")))
	assert.Never(t, func() bool {
		select {
		case msg := <-received:
			return msg == "after-cancel"
		default:
			return false
		}
	}, 10*testPollInterval, testPollInterval)
}

func TestRedisBus_RecoversFromPanickingDeliver(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	bus := NewRedisBus(rdb, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 4)
	require.NoError(t, bus.Subscribe(ctx, func(msg []byte) {
		if string(msg) == "boom" {
			panic("bad payload")
		}
		received <- string(msg)
	}))

	require.NoError(t, bus.Publish(context.Background(), []byte("boom")))
	require.NoError(t, bus.Publish(context.Background(), []byte("ok")))

	select {
	case msg := <-received:
		assert.Equal(t, "ok", msg)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("subscriber stopped after panic")
	}
}

func TestRedisBus_SubscribeFailsWhenRedisIsDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = NewRedisBus(rdb, nil).Subscribe(ctx, func([]byte) {})
	assert.Error(t, err)
}
