package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
)

func TestNotificationWorker_DrainsQueue(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	queue := events.NewRedisQueue(client, "helpdesk:events", events.NewInMemoryDispatcher(), zap.NewNop())
	var handled atomic.Int32
	queue.Subscribe(events.EventTicketNew, func(context.Context, events.Event) error {
		handled.Add(1)
		return nil
	})

	for i := 0; i < 3; i++ {
		ev, err := events.NewEvent(events.EventTicketNew, "t", "", events.TicketNewPayload{})
		require.NoError(t, err)
		require.NoError(t, queue.Publish(context.Background(), ev))
	}

	metrics := observability.NewMetrics()
	ctx, cancel := context.WithCancel(context.Background())
	w := NewNotificationWorker(queue, 2, zap.NewNop(), metrics)
	w.Start(ctx)

	assert.Eventually(t, func() bool { return handled.Load() == 3 }, 3*time.Second, 10*time.Millisecond)
	cancel()
	w.Wait()

	assert.Equal(t, int64(3), metrics.Snapshot().Events["ticket.new|ok"])
}
