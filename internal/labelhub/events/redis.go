package events

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/labelhub/internal/model"
	"github.com/kart-io/labelhub/pkg/utils/json"
)

// DefaultStream is the redis stream record events are appended to.
const DefaultStream = "labelhub:record-events"

// RedisStreamSink appends events to a capped redis stream. Consumers (such as
// a webhook dispatcher) read the stream with consumer groups.
type RedisStreamSink struct {
	client goredis.Cmdable
	stream string
	maxLen int64
}

// NewRedisStreamSink returns a sink writing to stream, trimmed approximately
// to maxLen entries when maxLen is positive.
func NewRedisStreamSink(client goredis.Cmdable, stream string, maxLen int64) *RedisStreamSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStreamSink{client: client, stream: stream, maxLen: maxLen}
}

func (s *RedisStreamSink) Emit(ctx context.Context, kind Kind, record *model.Record) error {
	event := NewEvent(kind, record)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", kind, err)
	}

	args := &goredis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"id":         event.ID,
			"kind":       string(kind),
			"dataset_id": event.DatasetID.String(),
			"record_id":  event.RecordID.String(),
			"payload":    payload,
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("append %s event to stream %s: %w", kind, s.stream, err)
	}
	return nil
}
