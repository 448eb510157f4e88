// Package events publishes record change notifications after a bulk call
// has committed.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kart-io/logger"

	"github.com/kart-io/labelhub/internal/model"
	"github.com/kart-io/labelhub/pkg/id"
)

// Kind names a record change.
type Kind string

const (
	RecordCreated Kind = "record.created"
	RecordUpdated Kind = "record.updated"
	RecordDeleted Kind = "record.deleted"
)

// Event is the envelope handed to subscribers.
type Event struct {
	ID        string        `json:"id"`
	Kind      Kind          `json:"kind"`
	Timestamp time.Time     `json:"timestamp"`
	DatasetID uuid.UUID     `json:"dataset_id"`
	RecordID  uuid.UUID     `json:"record_id"`
	Record    *model.Record `json:"record"`
}

// NewEvent wraps a record change with a time ordered id.
func NewEvent(kind Kind, record *model.Record) *Event {
	return &Event{
		ID:        id.NewULID(),
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		DatasetID: record.DatasetID,
		RecordID:  record.ID,
		Record:    record,
	}
}

// Sink receives record change events.
type Sink interface {
	Emit(ctx context.Context, kind Kind, record *model.Record) error
}

// LogSink writes events to the structured log.
type LogSink struct{}

func (LogSink) Emit(_ context.Context, kind Kind, record *model.Record) error {
	logger.Infow("Record event",
		"kind", string(kind),
		"dataset_id", record.DatasetID.String(),
		"record_id", record.ID.String(),
		"status", string(record.Status),
	)
	return nil
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) Emit(context.Context, Kind, *model.Record) error { return nil }

// Multi fans an event out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, kind Kind, record *model.Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, kind, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
