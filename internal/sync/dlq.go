package sync

// dlq.go — Dead Letter Queue
// Orders that exceed the maximum push attempt count are parked here for
// manual inspection; they stay PENDING_* locally so no data is lost.
// Uses a Redis list per source queue: dlq:{queue}

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DLQPrefix    = "dlq:"
	QueueOrdenes = "sync:ordenes"
)

// DLQEntry wraps a failed push with metadata for debugging.
type DLQEntry struct {
	Queue    string `json:"queue"`
	OrdenID  string `json:"orden_id"`
	Reason   string `json:"reason"`
	FailedAt string `json:"failed_at"` // ISO 8601
	Attempts int    `json:"attempts"`
}

// SendToDLQ parks a repeatedly failing push for manual inspection.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue, ordenID, reason string, attempts int) {
	entry := DLQEntry{
		Queue:    queue,
		OrdenID:  ordenID,
		Reason:   reason,
		FailedAt: time.Now().UTC().Format(time.RFC3339),
		Attempts: attempts,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("orden_id", ordenID).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: order push parked in dead letter queue")
}

// DLQLength returns the number of entries in a DLQ for monitoring.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
