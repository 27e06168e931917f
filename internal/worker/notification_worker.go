package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-online/internal/config"
	"github.com/stemsi/exstem-online/internal/notify"
)

const (
	NotifyPollTimeout = 1 * time.Second
	// DrainTimeout bounds delivery of leftover jobs at shutdown.
	DrainTimeout = 10 * time.Second
)

// Deliverer sends one notification and reports success.
type Deliverer interface {
	Deliver(ctx context.Context, n notify.Notification) bool
}

// NotificationWorker consumes notify_results_queue and mails results.
// A failed send is logged and dropped; email_sent stays false.
type NotificationWorker struct {
	rdb       *redis.Client
	deliverer Deliverer
	queue     string
	log       zerolog.Logger

	drainTimeout time.Duration
}

// NewNotificationWorker creates a new NotificationWorker.
func NewNotificationWorker(rdb *redis.Client, d Deliverer, log zerolog.Logger) *NotificationWorker {
	return &NotificationWorker{
		rdb:       rdb,
		deliverer: d,
		queue:     config.WorkerKey.NotifyResultsQueue,

		drainTimeout: DrainTimeout,
		log:       log.With().Str("component", "notification_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			drainCtx, cancel := w.drainContext()
			w.drain(drainCtx)
			cancel()
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *NotificationWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, NotifyPollTimeout, w.queue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
			time.Sleep(NotifyPollTimeout)
		}
		return
	}
	if len(result) < 2 {
		return
	}
	w.handle(ctx, result[1])
}

// handle decodes and delivers one queued payload. Malformed payloads are
// dropped.
func (w *NotificationWorker) handle(ctx context.Context, raw string) bool {
	var n notify.Notification
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return false
	}
	return w.deliverer.Deliver(ctx, n)
}

func (w *NotificationWorker) drainContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), w.drainTimeout)
}

// drain delivers whatever is still queued before shutdown, stopping once
// ctx expires. Jobs left behind stay in Redis for the next start.
func (w *NotificationWorker) drain(ctx context.Context) {
	drained := 0
	for ctx.Err() == nil {
		raw, err := w.rdb.LPop(ctx, w.queue).Result()
		if err != nil {
			break
		}
		w.handle(ctx, raw)
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
