package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
)

const (
	popTimeout   = 2 * time.Second
	errorBackoff = time.Second
	// deliveryTimeout bounds handler execution for one event.
	deliveryTimeout = 30 * time.Second
)

// EventSource is the queue side of the event pipeline.
type EventSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*events.Event, error)
	Deliver(ctx context.Context, event events.Event) error
}

// NotificationWorker drains the event queue and runs notification handlers.
type NotificationWorker struct {
	source  EventSource
	count   int
	logger  *zap.Logger
	metrics *observability.Metrics
	wg      sync.WaitGroup
}

// NewNotificationWorker builds a worker pool of count consumers.
func NewNotificationWorker(source EventSource, count int, logger *zap.Logger, metrics *observability.Metrics) *NotificationWorker {
	if count <= 0 {
		count = 1
	}
	return &NotificationWorker{source: source, count: count, logger: logger, metrics: metrics}
}

// Start launches the consumers; they stop when ctx is cancelled.
func (w *NotificationWorker) Start(ctx context.Context) {
	for i := 0; i < w.count; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.run(ctx, id)
		}(i)
	}
	w.logger.Info("notification worker started", zap.Int("consumers", w.count))
}

// Wait blocks until every consumer has returned.
func (w *NotificationWorker) Wait() {
	w.wg.Wait()
}

func (w *NotificationWorker) run(ctx context.Context, id int) {
	log := w.logger.With(zap.Int("consumer", id))
	for {
		if ctx.Err() != nil {
			return
		}
		event, err := w.source.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			log.Warn("event pop failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(errorBackoff):
			}
			continue
		}
		if event == nil {
			continue
		}
		w.handle(log, *event)
	}
}

func (w *NotificationWorker) handle(log *zap.Logger, event events.Event) {
	// Delivery outlives shutdown of the pop loop so a popped event is not dropped mid-flight.
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	err := w.source.Deliver(ctx, event)
	w.metrics.RecordEvent(string(event.Type), err == nil)
	if err != nil {
		log.Error("event handling failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
		return
	}
	log.Debug("event handled", zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))
}
