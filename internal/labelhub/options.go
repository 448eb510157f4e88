package labelhub

import (
	"fmt"
	"slices"

	"github.com/spf13/pflag"

	"github.com/kart-io/labelhub/internal/labelhub/biz"
	"github.com/kart-io/labelhub/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Event sinks.
const (
	SinkLog   = "log"
	SinkRedis = "redis"
)

// Options configures the bulk record engine.
type Options struct {
	// MinBulkItems and MaxBulkItems bound the items of one bulk call.
	MinBulkItems int `json:"min-bulk-items" mapstructure:"min-bulk-items"`
	MaxBulkItems int `json:"max-bulk-items" mapstructure:"max-bulk-items"`
	// ValidationWorkers sizes the per-record validation pool, 0 validates inline.
	ValidationWorkers int `json:"validation-workers" mapstructure:"validation-workers"`
	// EventSinks lists where record change events go: log, redis.
	EventSinks []string `json:"event-sinks" mapstructure:"event-sinks"`
	// EventStream is the redis stream receiving record events.
	EventStream string `json:"event-stream" mapstructure:"event-stream"`
	// EventStreamMaxLen approximately trims the stream, 0 keeps everything.
	EventStreamMaxLen int64 `json:"event-stream-max-len" mapstructure:"event-stream-max-len"`
}

// NewOptions creates Options with the default limits.
func NewOptions() *Options {
	limits := biz.DefaultLimits()
	return &Options{
		MinBulkItems:      limits.MinItems,
		MaxBulkItems:      limits.MaxItems,
		ValidationWorkers: 64,
		EventSinks:        []string{SinkLog},
		EventStream:       "labelhub:records",
		EventStreamMaxLen: 100000,
	}
}

// AddFlags adds flags for the engine options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "labelhub."
	fs.IntVar(&o.MinBulkItems, p+"min-bulk-items", o.MinBulkItems, "Minimum number of items of a bulk call.")
	fs.IntVar(&o.MaxBulkItems, p+"max-bulk-items", o.MaxBulkItems, "Maximum number of items of a bulk call.")
	fs.IntVar(&o.ValidationWorkers, p+"validation-workers", o.ValidationWorkers,
		"Workers validating bulk items concurrently, 0 validates on the request goroutine.")
	fs.StringSliceVar(&o.EventSinks, p+"event-sinks", o.EventSinks, "Record event sinks (log, redis).")
	fs.StringVar(&o.EventStream, p+"event-stream", o.EventStream, "Redis stream receiving record events.")
	fs.Int64Var(&o.EventStreamMaxLen, p+"event-stream-max-len", o.EventStreamMaxLen,
		"Approximate maximum length of the event stream, 0 disables trimming.")
}

// Validate validates the engine options.
func (o *Options) Validate() []error {
	var errs []error
	if o.MinBulkItems < 1 {
		errs = append(errs, fmt.Errorf("labelhub.min-bulk-items must be at least 1"))
	}
	if o.MaxBulkItems < o.MinBulkItems {
		errs = append(errs, fmt.Errorf("labelhub.max-bulk-items must not be lower than labelhub.min-bulk-items"))
	}
	if o.ValidationWorkers < 0 {
		errs = append(errs, fmt.Errorf("labelhub.validation-workers must not be negative"))
	}
	for _, sink := range o.EventSinks {
		if sink != SinkLog && sink != SinkRedis {
			errs = append(errs, fmt.Errorf("labelhub.event-sinks: unknown sink %q", sink))
		}
	}
	if o.HasSink(SinkRedis) && o.EventStream == "" {
		errs = append(errs, fmt.Errorf("labelhub.event-stream is required by the redis sink"))
	}
	if o.EventStreamMaxLen < 0 {
		errs = append(errs, fmt.Errorf("labelhub.event-stream-max-len must not be negative"))
	}
	return errs
}

// HasSink reports whether sink is configured.
func (o *Options) HasSink(sink string) bool {
	return slices.Contains(o.EventSinks, sink)
}

// Limits returns the configured batch bounds.
func (o *Options) Limits() biz.Limits {
	return biz.Limits{MinItems: o.MinBulkItems, MaxItems: o.MaxBulkItems}
}
