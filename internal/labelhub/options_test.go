package labelhub

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(o *Options)
		wantErr int
	}{
		{"defaults", func(o *Options) {}, 0},
		{"zero min", func(o *Options) { o.MinBulkItems = 0 }, 1},
		{"max below min", func(o *Options) { o.MinBulkItems, o.MaxBulkItems = 10, 5 }, 1},
		{"negative workers", func(o *Options) { o.ValidationWorkers = -1 }, 1},
		{"inline validation", func(o *Options) { o.ValidationWorkers = 0 }, 0},
		{"unknown sink", func(o *Options) { o.EventSinks = []string{"kafka"} }, 1},
		{"redis sink without stream", func(o *Options) {
			o.EventSinks = []string{SinkLog, SinkRedis}
			o.EventStream = ""
		}, 1},
		{"negative stream length", func(o *Options) { o.EventStreamMaxLen = -1 }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions()
			tt.modify(o)
			assert.Len(t, o.Validate(), tt.wantErr)
		})
	}
}

func TestOptions_Flags(t *testing.T) {
	o := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--labelhub.max-bulk-items=50",
		"--labelhub.event-sinks=log,redis",
	}))
	assert.Equal(t, 50, o.MaxBulkItems)
	assert.True(t, o.HasSink(SinkRedis))
	assert.Equal(t, 1, o.Limits().MinItems)
	assert.Equal(t, 50, o.Limits().MaxItems)
}
