package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-online/internal/config"
)

// RedisQueue pushes notifications onto a Redis list for NotificationWorker.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

// NewRedisQueue creates a producer for the results notification queue.
func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: config.WorkerKey.NotifyResultsQueue}
}

// Dispatch implements Dispatcher.
func (q *RedisQueue) Dispatch(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return q.rdb.RPush(ctx, q.key, payload).Err()
}

// Inline delivers notifications on a background goroutine in-process.
// It is used when no Redis is configured.
type Inline struct {
	deliverer *Deliverer
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewInline creates an in-process dispatcher.
func NewInline(d *Deliverer, log zerolog.Logger) *Inline {
	return &Inline{deliverer: d, log: log.With().Str("component", "notify_inline").Logger()}
}

// Dispatch implements Dispatcher. Delivery is detached from the request
// context so it survives the response being written.
func (i *Inline) Dispatch(ctx context.Context, n Notification) error {
	detached := context.WithoutCancel(ctx)
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		i.deliverer.Deliver(detached, n)
	}()
	return nil
}

// Wait blocks until every dispatched delivery has finished.
func (i *Inline) Wait() {
	i.wg.Wait()
}
