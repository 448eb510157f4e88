package biz

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kart-io/logger"

	"github.com/kart-io/labelhub/internal/labelhub/events"
	"github.com/kart-io/labelhub/internal/labelhub/metrics"
	"github.com/kart-io/labelhub/internal/labelhub/schema"
	"github.com/kart-io/labelhub/internal/labelhub/search"
	"github.com/kart-io/labelhub/internal/labelhub/store"
	"github.com/kart-io/labelhub/internal/model"
	"github.com/kart-io/labelhub/pkg/errors"
	"github.com/kart-io/labelhub/pkg/infra/pool"
	"github.com/kart-io/labelhub/pkg/infra/tracing"
	pkgstore "github.com/kart-io/labelhub/pkg/store"
)

const tracerName = "labelhub/biz"

// errInternalValidation is reported for a position whose validation did not
// finish, such as a recovered panic.
var errInternalValidation = stderrors.New("internal validation error")

// Page size bounds of record listing.
const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// RecordService handles record business logic.
type RecordService struct {
	store   store.Factory
	indexer search.Indexer
	sink    events.Sink
	limits  Limits
	pool    *pool.Pool
	metrics *metrics.Metrics
}

// Option configures a RecordService.
type Option func(*RecordService)

// WithLimits overrides the batch bounds.
func WithLimits(l Limits) Option {
	return func(s *RecordService) { s.limits = l }
}

// WithPool runs per-record validation on p. Without a pool records are
// validated on the calling goroutine.
func WithPool(p *pool.Pool) Option {
	return func(s *RecordService) { s.pool = p }
}

// WithMetrics records bulk metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *RecordService) { s.metrics = m }
}

// NewRecordService creates a new RecordService. Nil indexer and sink
// disable indexing and notifications.
func NewRecordService(f store.Factory, indexer search.Indexer, sink events.Sink, opts ...Option) *RecordService {
	if indexer == nil {
		indexer = search.NopIndexer{}
	}
	if sink == nil {
		sink = events.NopSink{}
	}
	s := &RecordService{
		store:   f,
		indexer: indexer,
		sink:    sink,
		limits:  DefaultLimits(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BulkCreate creates every record of the batch or none of them.
func (s *RecordService) BulkCreate(ctx context.Context, datasetID uuid.UUID, specs []*RecordSpec, include store.Include) ([]*RecordView, error) {
	return s.bulk(ctx, modeCreate, datasetID, specs, include)
}

// BulkUpsert updates the items carrying an id and creates the others, all
// in one transaction.
func (s *RecordService) BulkUpsert(ctx context.Context, datasetID uuid.UUID, specs []*RecordSpec, include store.Include) ([]*RecordView, error) {
	return s.bulk(ctx, modeUpsert, datasetID, specs, include)
}

func (s *RecordService) bulk(ctx context.Context, mode bulkMode, datasetID uuid.UUID,
	specs []*RecordSpec, include store.Include,
) ([]*RecordView, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "RecordService.Bulk")
	defer span.End()
	tracing.AddSpanAttributes(ctx,
		tracing.String("labelhub.bulk.mode", mode.String()),
		tracing.String("labelhub.dataset_id", datasetID.String()),
		tracing.Int("labelhub.bulk.items", len(specs)),
	)

	started := time.Now()
	dataset, committed, err := s.commit(ctx, mode, datasetID, specs)
	if err != nil {
		tracing.RecordError(ctx, err)
		s.metrics.ObserveBulk(mode.String(), bulkResult(err), started)
		return nil, err
	}

	records := make([]*model.Record, len(committed))
	created := 0
	for i, agg := range committed {
		records[i] = agg.sync()
		if agg.created {
			created++
		}
	}
	s.metrics.ObserveBulk(mode.String(), metrics.ResultSuccess, started)
	s.metrics.AddRecords("created", created)
	s.metrics.AddRecords("updated", len(records)-created)

	s.afterCommit(ctx, dataset, committed)

	logger.Infow("Bulk records committed",
		"mode", mode.String(),
		"dataset_id", datasetID.String(),
		"created", created,
		"updated", len(records)-created,
	)
	return newRecordViews(records, dataset, include), nil
}

func bulkResult(err error) string {
	var invalid *BatchValidationError
	if stderrors.As(err, &invalid) {
		return metrics.ResultInvalid
	}
	if errors.FromError(err).HTTPStatus() >= 500 {
		return metrics.ResultError
	}
	return metrics.ResultInvalid
}

// commit validates every item then persists them in batch order inside one
// transaction. It returns the aggregates of the committed records in input
// order.
func (s *RecordService) commit(ctx context.Context, mode bulkMode, datasetID uuid.UUID,
	specs []*RecordSpec,
) (*model.Dataset, []*recordAggregate, error) {
	if err := checkShape(specs, s.limits); err != nil {
		return nil, nil, err
	}

	var (
		dataset   *model.Dataset
		committed []*recordAggregate
	)
	err := s.store.TX(ctx, func(tx store.Factory) error {
		var err error
		dataset, err = tx.Datasets().GetWithSchema(ctx, datasetID)
		if err != nil {
			return err
		}
		if needsReadyDataset(specs, mode) && !dataset.IsReady() {
			return errors.ErrDatasetNotReady.WithMessagef(
				"records cannot be created for a non published dataset %q", dataset.Name)
		}
		registry, err := schema.NewRegistry(dataset)
		if err != nil {
			return errors.ErrInvalidSchema.WithCause(err)
		}

		items, failures, err := plan(ctx, tx.Records(), datasetID, specs, mode)
		if err != nil {
			return err
		}

		visible, err := tx.Users().VisibleIDs(ctx, dataset.WorkspaceID, responseUserIDs(specs))
		if err != nil {
			return err
		}

		m := &mutator{registry: registry, visible: visible}
		aggs, more, err := s.mutateAll(ctx, m, items, failures)
		if err != nil {
			return err
		}
		failures = append(failures, more...)
		if len(failures) > 0 {
			return newBatchValidationError(failures)
		}

		records := tx.Records()
		for _, agg := range aggs {
			if err := persist(ctx, records, agg); err != nil {
				return err
			}
		}
		committed = aggs
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return dataset, committed, nil
}

// mutateAll applies every planned item, skipping positions that already
// failed planning. Failures are returned unsorted.
func (s *RecordService) mutateAll(ctx context.Context, m *mutator, items []*plannedItem,
	planned []PositionalError,
) ([]*recordAggregate, []PositionalError, error) {
	skip := make(map[int]bool, len(planned))
	for _, f := range planned {
		skip[f.Position] = true
	}

	aggs := make([]*recordAggregate, len(items))
	errs := make([]error, len(items))
	apply := func(i int) {
		if skip[i] {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("Record validation panicked", "position", items[i].position, "panic", fmt.Sprint(r))
				aggs[i], errs[i] = nil, errInternalValidation
			}
		}()
		aggs[i], errs[i] = m.apply(items[i])
	}

	if s.pool != nil {
		if err := s.pool.ForEach(ctx, len(items), apply); err != nil {
			return nil, nil, err
		}
	} else {
		for i := range items {
			apply(i)
		}
	}

	var failures []PositionalError
	for i, err := range errs {
		if err == nil && aggs[i] == nil && !skip[i] {
			err = errInternalValidation
		}
		if err != nil {
			failures = append(failures, PositionalError{Position: items[i].position, Reason: err.Error()})
		}
	}
	return aggs, failures, nil
}

func responseUserIDs(specs []*RecordSpec) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, s := range specs {
		if !s.Responses.Present() {
			continue
		}
		for _, r := range s.Responses.Value {
			if !seen[r.UserID] {
				seen[r.UserID] = true
				ids = append(ids, r.UserID)
			}
		}
	}
	return ids
}

// persist writes one aggregate: the record row first, then its changed
// children.
func persist(ctx context.Context, records store.RecordStore, agg *recordAggregate) error {
	if agg.created {
		if err := records.Create(ctx, agg.record); err != nil {
			return err
		}
	} else if err := records.Update(ctx, agg.record); err != nil {
		return err
	}

	for _, r := range agg.responses.changed(added) {
		if err := records.CreateResponse(ctx, r); err != nil {
			return err
		}
	}
	for _, r := range agg.responses.changed(modified) {
		if err := records.UpdateResponse(ctx, r); err != nil {
			return err
		}
	}

	if removed := agg.suggestions.removed; len(removed) > 0 {
		ids := make([]uuid.UUID, len(removed))
		for i, sug := range removed {
			ids[i] = sug.ID
		}
		if err := records.DeleteSuggestions(ctx, ids); err != nil {
			return err
		}
	}
	for _, sug := range agg.suggestions.changed(added) {
		if err := records.CreateSuggestion(ctx, sug); err != nil {
			return err
		}
	}
	for _, sug := range agg.suggestions.changed(modified) {
		if err := records.UpdateSuggestion(ctx, sug); err != nil {
			return err
		}
	}

	for _, v := range agg.vectors.changed(added) {
		if err := records.CreateVector(ctx, v); err != nil {
			return err
		}
	}
	for _, v := range agg.vectors.changed(modified) {
		if err := records.UpdateVector(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// afterCommit indexes the committed records in one call then emits one
// event per record in batch order. Failures are logged and counted only.
func (s *RecordService) afterCommit(ctx context.Context, dataset *model.Dataset, committed []*recordAggregate) {
	records := make([]*model.Record, len(committed))
	for i, agg := range committed {
		records[i] = agg.record
	}

	if err := s.indexer.IndexRecords(ctx, dataset, records); err != nil {
		s.metrics.PostCommitFailed(metrics.StageIndex)
		tracing.AddSpanEvent(ctx, "index.failed", tracing.String("error", err.Error()))
		logger.Errorw("Failed to index committed records",
			"dataset_id", dataset.ID.String(),
			"count", len(records),
			"error", err.Error(),
		)
	}

	for _, agg := range committed {
		kind := events.RecordUpdated
		if agg.created {
			kind = events.RecordCreated
		}
		s.emit(ctx, kind, agg.record)
	}
}

func (s *RecordService) emit(ctx context.Context, kind events.Kind, record *model.Record) {
	if err := s.sink.Emit(ctx, kind, record); err != nil {
		s.metrics.PostCommitFailed(metrics.StageEvents)
		logger.Errorw("Failed to emit record event",
			"kind", string(kind),
			"record_id", record.ID.String(),
			"error", err.Error(),
		)
	}
}

// Get retrieves a record.
func (s *RecordService) Get(ctx context.Context, id uuid.UUID, include store.Include) (*RecordView, error) {
	record, err := s.store.Records().Get(ctx, id, include)
	if err != nil {
		return nil, err
	}
	dataset, err := s.store.Datasets().GetWithSchema(ctx, record.DatasetID)
	if err != nil {
		return nil, err
	}
	return newRecordView(record, vectorNames(dataset), include), nil
}

// ListOptions selects one page of records.
type ListOptions struct {
	Page     int
	PageSize int
	Status   model.RecordStatus
	Include  store.Include
}

// List lists the records of a dataset in insertion order.
func (s *RecordService) List(ctx context.Context, datasetID uuid.UUID, opts ListOptions) (*RecordList, error) {
	dataset, err := s.store.Datasets().GetWithSchema(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	page, size := opts.Page, opts.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		return nil, errors.ErrInvalidParam.WithMessagef("page size must be at most %d", MaxPageSize)
	}

	whr := pkgstore.NewWhere(pkgstore.WithPage(page, size))
	if opts.Status != "" {
		if opts.Status != model.RecordStatusPending && opts.Status != model.RecordStatusCompleted {
			return nil, errors.ErrInvalidParam.WithMessagef("unknown record status %q", opts.Status)
		}
		whr.F("status", opts.Status)
	}

	total, records, err := s.store.Records().List(ctx, datasetID, whr, opts.Include)
	if err != nil {
		return nil, err
	}
	return &RecordList{Total: total, Items: newRecordViews(records, dataset, opts.Include)}, nil
}

// Delete removes the dataset records among ids and returns how many were
// removed. Unknown ids are ignored.
func (s *RecordService) Delete(ctx context.Context, datasetID uuid.UUID, ids []uuid.UUID) (int, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "RecordService.Delete")
	defer span.End()

	started := time.Now()
	if err := checkDeleteShape(ids, s.limits); err != nil {
		s.metrics.ObserveBulk("delete", metrics.ResultInvalid, started)
		return 0, err
	}
	dataset, err := s.store.Datasets().GetWithSchema(ctx, datasetID)
	if err != nil {
		s.metrics.ObserveBulk("delete", bulkResult(err), started)
		return 0, err
	}

	deleted, err := s.store.Records().Delete(ctx, datasetID, ids)
	if err != nil {
		tracing.RecordError(ctx, err)
		s.metrics.ObserveBulk("delete", metrics.ResultError, started)
		return 0, err
	}
	s.metrics.ObserveBulk("delete", metrics.ResultSuccess, started)
	s.metrics.AddRecords("deleted", len(deleted))

	if len(deleted) > 0 {
		if err := s.indexer.DeleteRecords(ctx, dataset, deleted); err != nil {
			s.metrics.PostCommitFailed(metrics.StageIndex)
			logger.Errorw("Failed to delete records from index",
				"dataset_id", datasetID.String(),
				"count", len(deleted),
				"error", err.Error(),
			)
		}
		for _, r := range deleted {
			s.emit(ctx, events.RecordDeleted, r)
		}
	}
	return len(deleted), nil
}

func checkDeleteShape(ids []uuid.UUID, limits Limits) error {
	if len(ids) < limits.MinItems || len(ids) > limits.MaxItems {
		return errors.ErrBatchShape.WithMessagef(
			"expected between %d and %d record ids to delete, found %d",
			limits.MinItems, limits.MaxItems, len(ids))
	}
	return nil
}
