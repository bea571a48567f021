package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// QueueKey is the Redis list used as the outbound mail queue.
const QueueKey = "custos:mail:queue"

// DefaultMaxQueueSize caps the queue so mail-service outages do not grow
// Redis without bound. 0 = unlimited.
const DefaultMaxQueueSize int64 = 1000

// ErrQueueFull is returned by Send when the queue has reached its size cap.
var ErrQueueFull = errors.New("mail queue full")

// enqueueScript atomically checks the queue length and pushes the payload
// only if under the cap. Returns 1 if enqueued, 0 if rejected.
// KEYS[1] = queue key, ARGV[1] = max size (0 = skip check), ARGV[2] = payload.
var enqueueScript = redis.NewScript(`
local max = tonumber(ARGV[1])
if max > 0 and redis.call('LLEN', KEYS[1]) >= max then
    return 0
end
redis.call('RPUSH', KEYS[1], ARGV[2])
return 1
`)

// QueuedMailer enqueues messages to Redis so workflow handlers return
// without waiting on the mail service. StartWorker drains the queue and
// hands each message to the inner Mailer.
type QueuedMailer struct {
	inner        Mailer
	rdb          *redis.Client
	log          *slog.Logger
	maxQueueSize int64
}

func NewQueuedMailer(inner Mailer, rdb *redis.Client, log *slog.Logger, maxSize int64) *QueuedMailer {
	return &QueuedMailer{inner: inner, rdb: rdb, log: log, maxQueueSize: maxSize}
}

func (q *QueuedMailer) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mail job: %w", err)
	}
	ok, err := enqueueScript.Run(ctx, q.rdb, []string{QueueKey}, q.maxQueueSize, data).Int64()
	if err != nil {
		return fmt.Errorf("enqueue mail job: %w", err)
	}
	if ok == 0 {
		return ErrQueueFull
	}
	return nil
}

// StartWorker drains the mail queue in a loop, dispatching each message to
// the inner Mailer. Blocks until ctx is cancelled; call in a goroutine.
func (q *QueuedMailer) StartWorker(ctx context.Context) {
	for {
		// BLPop blocks up to 2s then returns redis.Nil, which keeps the
		// loop responsive to ctx cancellation without busy-spinning.
		res, err := q.rdb.BLPop(ctx, 2*time.Second, QueueKey).Result()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			q.log.Error("mail worker: queue pop failed", "err", err)
			continue
		}
		// res[0] = key name, res[1] = payload
		var msg Message
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
			q.log.Error("mail worker: bad job payload", "err", err)
			continue
		}
		// errors are logged and dropped; the workflow layer handles
		// recovery through challenge reissue
		if err := q.inner.Send(ctx, msg); err != nil {
			q.log.Error("mail worker: send failed", "topic", msg.Topic, "to", msg.Destination, "err", err)
		}
	}
}
