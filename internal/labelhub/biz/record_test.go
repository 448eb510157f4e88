package biz

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/labelhub/internal/labelhub/events"
	"github.com/kart-io/labelhub/internal/labelhub/metrics"
	"github.com/kart-io/labelhub/internal/labelhub/store"
	"github.com/kart-io/labelhub/internal/model"
	"github.com/kart-io/labelhub/pkg/errors"
	"github.com/kart-io/labelhub/pkg/infra/pool"
	"github.com/kart-io/labelhub/pkg/utils/json"
)

func positionalFailures(t *testing.T, err error) *BatchValidationError {
	t.Helper()
	var invalid *BatchValidationError
	require.True(t, stderrors.As(err, &invalid), "expected a batch validation error, got %v", err)
	assert.True(t, stderrors.Is(err, errors.ErrRecordsInvalid))
	return invalid
}

func TestBulkCreate(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	sentiment := f.questions["sentiment"]

	specs := []*RecordSpec{
		{
			Fields:     textFields("Alice loves it"),
			Metadata:   Some(map[string]any{"source": "web"}),
			ExternalID: Some("ext-1"),
			Vectors:    map[string][]float64{"embedding": {0.1, 0.2, 0.3}},
			Responses: Some([]ResponseSpec{
				response(f.alice, model.ResponseStatusSubmitted, map[string]any{
					"sentiment": "positive",
					"entities":  []any{map[string]any{"label": "PER", "start": 0, "end": 5}},
				}),
			}),
			Suggestions: Some([]SuggestionSpec{
				{QuestionID: sentiment.ID, Value: "positive", Score: 0.9, Agent: strPtr("model-v1"), Type: strPtr("model")},
			}),
		},
		{Fields: textFields("nothing to say")},
	}

	views, err := f.records.BulkCreate(ctx, f.dataset.ID, specs, store.IncludeAll)
	require.NoError(t, err)
	require.Len(t, views, 2)

	first := views[0]
	assert.Equal(t, model.RecordStatusCompleted, first.Status)
	assert.Equal(t, "ext-1", *first.ExternalID)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, first.Vectors["embedding"])
	require.Len(t, first.Responses, 1)
	assert.Equal(t, f.alice.ID, first.Responses[0].UserID)
	assert.Equal(t, map[string]any{"value": "positive"}, first.Responses[0].Values["sentiment"])
	require.Len(t, first.Suggestions, 1)
	assert.Equal(t, model.RecordStatusPending, views[1].Status)

	stored, err := f.store.Records().Get(ctx, first.ID, store.IncludeAll)
	require.NoError(t, err)
	assert.Equal(t, "web", stored.Metadata["source"])
	assert.Len(t, stored.Responses, 1)
	assert.Len(t, stored.Vectors, 1)
	require.Len(t, stored.Suggestions, 1)
	assert.JSONEq(t, `0.9`, string(stored.Suggestions[0].Score))

	assert.Equal(t, []events.Kind{events.RecordCreated, events.RecordCreated}, f.sink.kinds())
	assert.Equal(t, first.ID, f.sink.events[0].id)
	assert.Equal(t, [][]uuid.UUID{{views[0].ID, views[1].ID}}, f.indexer.indexed)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.BulkRecords.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BulkOperations.WithLabelValues("create", metrics.ResultSuccess)))
}

func TestBulkCreate_IncludeFlags(t *testing.T) {
	f := newFixture(t, 1)

	views, err := f.records.BulkCreate(context.Background(), f.dataset.ID, []*RecordSpec{{
		Fields:    textFields("hello"),
		Vectors:   map[string][]float64{"embedding": {1, 2, 3}},
		Responses: Some([]ResponseSpec{response(f.alice, model.ResponseStatusDraft, nil)}),
	}}, store.Include{})
	require.NoError(t, err)

	assert.Nil(t, views[0].Responses)
	assert.Nil(t, views[0].Vectors)
}

func TestBulkCreate_IsAtomic(t *testing.T) {
	f := newFixture(t, 1)

	specs := []*RecordSpec{
		{Fields: textFields("valid")},
		{Fields: Some(map[string]any{"unknown": "value"})},
		{Fields: textFields("also valid")},
	}
	_, err := f.records.BulkCreate(context.Background(), f.dataset.ID, specs, store.IncludeAll)
	invalid := positionalFailures(t, err)

	assert.Equal(t, []int{1}, invalid.Positions())
	assert.Contains(t, invalid.Error(), "record at position 1 is not valid because")
	assert.Equal(t, int64(0), f.countRecords(t))
	assert.Empty(t, f.sink.events)
	assert.Empty(t, f.indexer.indexed)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BulkOperations.WithLabelValues("create", metrics.ResultInvalid)))
}

func TestBulkCreate_PositionalErrors(t *testing.T) {
	f := newFixture(t, 1)
	sentiment := f.questions["sentiment"]
	id := uuid.New()

	tests := []struct {
		name   string
		spec   *RecordSpec
		reason string
	}{
		{"missing fields", &RecordSpec{}, "fields cannot be empty"},
		{"empty fields", &RecordSpec{Fields: Some(map[string]any{})}, "fields cannot be empty"},
		{"missing required field", &RecordSpec{Fields: Some(map[string]any{"context": "c"})}, `missing required value for field: "text"`},
		{"non text field", &RecordSpec{Fields: Some(map[string]any{"text": 3.0})}, "Expected 'str'"},
		{"id on create", &RecordSpec{ID: &id, Fields: textFields("x")}, "id is not allowed when creating records"},
		{
			"unknown metadata",
			&RecordSpec{Fields: textFields("x"), Metadata: Some(map[string]any{"lang": "en"})},
			"metadata property with name=lang not found and extra metadata is not allowed",
		},
		{
			"metadata out of range",
			&RecordSpec{Fields: textFields("x"), Metadata: Some(map[string]any{"votes": 11.0})},
			"'votes' metadata property validation failed because",
		},
		{
			"vector dimensions",
			&RecordSpec{Fields: textFields("x"), Vectors: map[string][]float64{"embedding": {1, 2}}},
			`vector "embedding" must have 3 elements, got 2 elements`,
		},
		{
			"duplicate response user",
			&RecordSpec{Fields: textFields("x"), Responses: Some([]ResponseSpec{
				response(f.alice, model.ResponseStatusDraft, nil),
				response(f.alice, model.ResponseStatusDraft, nil),
			})},
			"responses contain more than one response for the same user_id=" + f.alice.ID.String(),
		},
		{
			"user outside workspace",
			&RecordSpec{Fields: textFields("x"), Responses: Some([]ResponseSpec{
				response(f.outsider, model.ResponseStatusDraft, nil),
			})},
			"user_id=" + f.outsider.ID.String() + " not found",
		},
		{
			"submitted without required answer",
			&RecordSpec{Fields: textFields("x"), Responses: Some([]ResponseSpec{
				response(f.alice, model.ResponseStatusSubmitted, map[string]any{"comment": "meh"}),
			})},
			"missing response value for required question with name=sentiment",
		},
		{
			"unknown question",
			&RecordSpec{Fields: textFields("x"), Responses: Some([]ResponseSpec{
				response(f.alice, model.ResponseStatusDraft, map[string]any{"topic": "sports"}),
			})},
			"found response value for non configured question with name=topic",
		},
		{
			"span beyond field",
			&RecordSpec{Fields: textFields("abc"), Responses: Some([]ResponseSpec{
				response(f.alice, model.ResponseStatusDraft, map[string]any{
					"entities": []any{map[string]any{"label": "PER", "start": 0, "end": 4}},
				}),
			})},
			"has end greater than the field length (3)",
		},
		{
			"duplicate suggestion question",
			&RecordSpec{Fields: textFields("x"), Suggestions: Some([]SuggestionSpec{
				{QuestionID: sentiment.ID, Value: "positive"},
				{QuestionID: sentiment.ID, Value: "negative"},
			})},
			"found duplicate suggestions question IDs",
		},
		{
			"suggestion score list for single value",
			&RecordSpec{Fields: textFields("x"), Suggestions: Some([]SuggestionSpec{
				{QuestionID: sentiment.ID, Value: "positive", Score: []any{0.5}},
			})},
			"a list of score values is not allowed for a suggestion with a single value",
		},
		{
			"suggestion agent too long",
			&RecordSpec{Fields: textFields("x"), Suggestions: Some([]SuggestionSpec{
				{QuestionID: sentiment.ID, Value: "positive", Agent: strPtr(string(make([]byte, 201)))},
			})},
			"suggestion agent must have between 1 and 200 characters",
		},
		{
			"suggestion type",
			&RecordSpec{Fields: textFields("x"), Suggestions: Some([]SuggestionSpec{
				{QuestionID: sentiment.ID, Value: "positive", Type: strPtr("robot")},
			})},
			`suggestion type "robot" is not valid`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs := []*RecordSpec{{Fields: textFields("fine")}, tt.spec}
			_, err := f.records.BulkCreate(context.Background(), f.dataset.ID, specs, store.Include{})
			invalid := positionalFailures(t, err)

			require.Len(t, invalid.Failures, 1)
			assert.Equal(t, 1, invalid.Failures[0].Position)
			assert.Contains(t, invalid.Failures[0].Reason, tt.reason)
		})
	}
	assert.Equal(t, int64(0), f.countRecords(t))
}

func TestBulkCreate_AggregatesAllPositions(t *testing.T) {
	f := newFixture(t, 1, WithPool(newTestPool(t)))

	specs := []*RecordSpec{
		{},
		{Fields: textFields("ok")},
		{Fields: Some(map[string]any{"text": 1.0})},
		{Fields: textFields("ok")},
		{Fields: textFields("x"), Vectors: map[string][]float64{"missing": {1}}},
	}
	_, err := f.records.BulkCreate(context.Background(), f.dataset.ID, specs, store.Include{})
	invalid := positionalFailures(t, err)
	assert.Equal(t, []int{0, 2, 4}, invalid.Positions())

	details, ok := errors.FromError(err).Details().([]PositionalError)
	require.True(t, ok)
	assert.Len(t, details, 3)
}

func newTestPool(t *testing.T) *pool.Pool {
	t.Helper()
	p, err := pool.NewPool("validation", pool.ValidationPool, pool.ValidationPoolConfig(4))
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestBulkCreate_BatchShape(t *testing.T) {
	f := newFixture(t, 1, WithLimits(Limits{MinItems: 1, MaxItems: 2}))
	ctx := context.Background()

	_, err := f.records.BulkCreate(ctx, f.dataset.ID, nil, store.Include{})
	assert.ErrorIs(t, err, errors.ErrBatchShape)

	three := []*RecordSpec{{Fields: textFields("a")}, {Fields: textFields("b")}, {Fields: textFields("c")}}
	_, err = f.records.BulkCreate(ctx, f.dataset.ID, three, store.Include{})
	assert.ErrorIs(t, err, errors.ErrBatchShape)

	_, err = f.records.BulkCreate(ctx, f.dataset.ID, []*RecordSpec{nil}, store.Include{})
	assert.ErrorIs(t, err, errors.ErrBatchShape)
}

func TestBulkCreate_DatasetNotReady(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	draft, err := f.datasets.Create(ctx, &CreateDatasetRequest{WorkspaceID: f.dataset.WorkspaceID, Name: "draft"})
	require.NoError(t, err)

	_, err = f.records.BulkCreate(ctx, draft.ID, []*RecordSpec{{Fields: textFields("x")}}, store.Include{})
	assert.ErrorIs(t, err, errors.ErrDatasetNotReady)

	_, err = f.records.BulkUpsert(ctx, draft.ID, []*RecordSpec{{Fields: textFields("x")}}, store.Include{})
	assert.ErrorIs(t, err, errors.ErrDatasetNotReady)

	_, err = f.records.BulkCreate(ctx, uuid.New(), []*RecordSpec{{Fields: textFields("x")}}, store.Include{})
	assert.ErrorIs(t, err, errors.ErrDatasetNotFound)
}

func TestBulkUpsert_IsIdempotent(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	created, err := f.records.BulkUpsert(ctx, f.dataset.ID, []*RecordSpec{{
		Fields:   textFields("first"),
		Metadata: Some(map[string]any{"source": "mail"}),
	}}, store.IncludeAll)
	require.NoError(t, err)
	id := created[0].ID

	update := func() *RecordView {
		views, err := f.records.BulkUpsert(ctx, f.dataset.ID, []*RecordSpec{{
			ID:        &id,
			Fields:    textFields("second"),
			Vectors:   map[string][]float64{"embedding": {3, 2, 1}},
			Responses: Some([]ResponseSpec{response(f.bob, model.ResponseStatusSubmitted, map[string]any{"sentiment": "negative"})}),
		}}, store.IncludeAll)
		require.NoError(t, err)
		return views[0]
	}
	once := update()
	twice := update()

	assert.Empty(t, cmp.Diff(once, twice,
		cmpopts.IgnoreFields(RecordView{}, "Responses", "Suggestions", "InsertedAt", "UpdatedAt")))
	assert.Equal(t, id, twice.ID)
	assert.Equal(t, "mail", twice.Metadata["source"])
	assert.Len(t, twice.Responses, 1)
	assert.Equal(t, once.Responses[0].ID, twice.Responses[0].ID)
	assert.Equal(t, model.RecordStatusCompleted, twice.Status)
	assert.Equal(t, int64(1), f.countRecords(t))

	assert.Equal(t, []events.Kind{events.RecordCreated, events.RecordUpdated, events.RecordUpdated}, f.sink.kinds())
}

func TestBulkUpsert_MixedCreateAndUpdate(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	existing, err := f.records.BulkCreate(ctx, f.dataset.ID, []*RecordSpec{{Fields: textFields("old")}}, store.Include{})
	require.NoError(t, err)
	id := existing[0].ID

	views, err := f.records.BulkUpsert(ctx, f.dataset.ID, []*RecordSpec{
		{Fields: textFields("new")},
		{ID: &id, Metadata: Some(map[string]any{"votes": 4.0})},
	}, store.Include{})
	require.NoError(t, err)

	assert.NotEqual(t, id, views[0].ID)
	assert.Equal(t, id, views[1].ID)
	assert.Equal(t, "old", views[1].Fields["text"], "fields are untouched when absent")
	assert.Equal(t, int64(2), f.countRecords(t))
	assert.Equal(t, []events.Kind{events.RecordCreated, events.RecordCreated, events.RecordUpdated}, f.sink.kinds())
}

func TestBulkUpsert_FatalIDErrors(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	existing, err := f.records.BulkCreate(ctx, f.dataset.ID, []*RecordSpec{{Fields: textFields("x")}}, store.Include{})
	require.NoError(t, err)
	id := existing[0].ID

	_, err = f.records.BulkUpsert(ctx, f.dataset.ID, []*RecordSpec{{ID: &id}, {ID: &id}}, store.Include{})
	assert.ErrorIs(t, err, errors.ErrDuplicateRecordID)

	unknown := uuid.New()
	_, err = f.records.BulkUpsert(ctx, f.dataset.ID, []*RecordSpec{{ID: &id}, {ID: &unknown}}, store.Include{})
	assert.ErrorIs(t, err, errors.ErrRecordNotFound)
	assert.Contains(t, errors.FromError(err).MessageEN, "position 1")

	other, err := f.datasets.Create(ctx, &CreateDatasetRequest{WorkspaceID: f.dataset.WorkspaceID, Name: "other"})
	require.NoError(t, err)
	_, err = f.records.BulkUpsert(ctx, other.ID, []*RecordSpec{{ID: &id}}, store.Include{})
	assert.ErrorIs(t, err, errors.ErrRecordNotFound, "records resolve inside their own dataset only")
}

func TestBulkUpsert_StatusDerivation(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	upsert := func(spec *RecordSpec) *RecordView {
		views, err := f.records.BulkUpsert(ctx, f.dataset.ID, []*RecordSpec{spec}, store.IncludeAll)
		require.NoError(t, err)
		return views[0]
	}
	answer := map[string]any{"sentiment": "positive"}

	v := upsert(&RecordSpec{
		Fields:    textFields("x"),
		Responses: Some([]ResponseSpec{response(f.alice, model.ResponseStatusSubmitted, answer)}),
	})
	assert.Equal(t, model.RecordStatusPending, v.Status, "one submission is below min_submitted")

	id := v.ID
	v = upsert(&RecordSpec{
		ID:        &id,
		Responses: Some([]ResponseSpec{response(f.bob, model.ResponseStatusSubmitted, answer)}),
	})
	assert.Equal(t, model.RecordStatusCompleted, v.Status)
	assert.Len(t, v.Responses, 2, "responses of other users are kept")

	v = upsert(&RecordSpec{
		ID:        &id,
		Responses: Some([]ResponseSpec{response(f.alice, model.ResponseStatusDiscarded, nil)}),
	})
	assert.Equal(t, model.RecordStatusPending, v.Status)

	stored, err := f.store.Records().Get(ctx, id, store.Include{})
	require.NoError(t, err)
	assert.Equal(t, model.RecordStatusPending, stored.Status)

	v = upsert(&RecordSpec{
		ID:        &id,
		Responses: Some([]ResponseSpec{response(f.alice, model.ResponseStatusSubmitted, answer)}),
	})
	assert.Equal(t, model.RecordStatusCompleted, v.Status, "resubmitting restores min_submitted")

	stored, err = f.store.Records().Get(ctx, id, store.Include{})
	require.NoError(t, err)
	assert.Equal(t, model.RecordStatusCompleted, stored.Status)
}

func TestBulkUpsert_VectorsUntouchedWhenUnnamed(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	dataset, err := f.store.Datasets().GetWithSchema(ctx, f.dataset.ID)
	require.NoError(t, err)
	names := vectorNames(dataset)

	stored := func(id uuid.UUID) map[string][]float64 {
		r, err := f.store.Records().Get(ctx, id, store.IncludeAll)
		require.NoError(t, err)
		out := make(map[string][]float64, len(r.Vectors))
		for _, v := range r.Vectors {
			out[names[v.VectorSettingsID]] = v.Value
		}
		assert.Len(t, r.Vectors, len(out), "one row per vector setting")
		return out
	}

	created, err := f.records.BulkUpsert(ctx, f.dataset.ID, []*RecordSpec{{
		Fields:  textFields("x"),
		Vectors: map[string][]float64{"embedding": {1, 2, 3}, "summary": {0.5, 0.5}},
	}}, store.IncludeAll)
	require.NoError(t, err)
	id := created[0].ID
	assert.Equal(t, map[string][]float64{"embedding": {1, 2, 3}, "summary": {0.5, 0.5}}, stored(id))

	_, err = f.records.BulkUpsert(ctx, f.dataset.ID, []*RecordSpec{{
		ID:      &id,
		Vectors: map[string][]float64{"embedding": {3, 2, 1}},
	}}, store.IncludeAll)
	require.NoError(t, err)
	assert.Equal(t, map[string][]float64{"embedding": {3, 2, 1}, "summary": {0.5, 0.5}}, stored(id))

	views, err := f.records.BulkUpsert(ctx, f.dataset.ID, []*RecordSpec{{
		ID:       &id,
		Metadata: Some(map[string]any{"source": "web"}),
	}}, store.IncludeAll)
	require.NoError(t, err)
	assert.Equal(t, map[string][]float64{"embedding": {3, 2, 1}, "summary": {0.5, 0.5}}, views[0].Vectors)
	assert.Equal(t, map[string][]float64{"embedding": {3, 2, 1}, "summary": {0.5, 0.5}}, stored(id))
}

func TestMutateAll_RecoversValidationPanic(t *testing.T) {
	tests := []struct {
		name string
		pool func(t *testing.T) *pool.Pool
	}{
		{name: "inline", pool: func(*testing.T) *pool.Pool { return nil }},
		{name: "pooled", pool: newTestPool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &RecordService{pool: tt.pool(t)}
			items := []*plannedItem{
				{position: 0, spec: &RecordSpec{}},
				{position: 1, spec: &RecordSpec{}},
			}
			planned := []PositionalError{{Position: 1, Reason: "record not found"}}

			// A mutator without a registry panics on the first lookup.
			aggs, failures, err := s.mutateAll(context.Background(), &mutator{}, items, planned)
			require.NoError(t, err)
			assert.Nil(t, aggs[0])
			assert.Equal(t, []PositionalError{{Position: 0, Reason: "internal validation error"}}, failures)
		})
	}
}

func TestBulkUpsert_SuggestionsReplace(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	sentiment, comment := f.questions["sentiment"], f.questions["comment"]

	upsert := func(spec *RecordSpec) *RecordView {
		views, err := f.records.BulkUpsert(ctx, f.dataset.ID, []*RecordSpec{spec}, store.IncludeAll)
		require.NoError(t, err)
		return views[0]
	}
	questionIDs := func(v *RecordView) []uuid.UUID {
		var out []uuid.UUID
		for _, s := range v.Suggestions {
			out = append(out, s.QuestionID)
		}
		return out
	}

	v := upsert(&RecordSpec{
		Fields: textFields("x"),
		Suggestions: Some([]SuggestionSpec{
			{QuestionID: sentiment.ID, Value: "positive"},
			{QuestionID: comment.ID, Value: "short"},
		}),
	})
	assert.ElementsMatch(t, []uuid.UUID{sentiment.ID, comment.ID}, questionIDs(v))
	id := v.ID

	v = upsert(&RecordSpec{ID: &id, Suggestions: Some([]SuggestionSpec{{QuestionID: sentiment.ID, Value: "negative", Score: 0.4}})})
	assert.Equal(t, []uuid.UUID{sentiment.ID}, questionIDs(v))
	var value string
	require.NoError(t, json.Unmarshal(v.Suggestions[0].Value, &value))
	assert.Equal(t, "negative", value)

	v = upsert(&RecordSpec{ID: &id, Fields: textFields("y")})
	assert.Equal(t, []uuid.UUID{sentiment.ID}, questionIDs(v), "suggestions are untouched when absent")

	v = upsert(&RecordSpec{ID: &id, Suggestions: Some([]SuggestionSpec{})})
	assert.Empty(t, v.Suggestions)

	stored, err := f.store.Records().Get(ctx, id, store.IncludeAll)
	require.NoError(t, err)
	assert.Empty(t, stored.Suggestions)
}

func TestBulkUpsert_Metadata(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	upsert := func(spec *RecordSpec) *RecordView {
		views, err := f.records.BulkUpsert(ctx, f.dataset.ID, []*RecordSpec{spec}, store.Include{})
		require.NoError(t, err)
		return views[0]
	}

	v := upsert(&RecordSpec{Fields: textFields("x"), Metadata: Some(map[string]any{"source": "web", "votes": 2.0})})
	id := v.ID

	v = upsert(&RecordSpec{ID: &id, Metadata: Some(map[string]any{"votes": 5.0})})
	assert.Equal(t, map[string]any{"source": "web", "votes": 5.0}, v.Metadata)

	v = upsert(&RecordSpec{ID: &id, Metadata: Some(map[string]any{"source": nil, "lang": nil})})
	assert.Equal(t, map[string]any{"votes": 5.0}, v.Metadata, "null removes a key, declared or not")

	v = upsert(&RecordSpec{ID: &id, Metadata: Null[map[string]any]()})
	assert.Empty(t, v.Metadata)
}

func TestBulk_PostCommitFailuresAreSwallowed(t *testing.T) {
	f := newFixture(t, 1)
	f.indexer.err = errUnavailable
	f.sink.err = errUnavailable

	views, err := f.records.BulkCreate(context.Background(), f.dataset.ID, []*RecordSpec{
		{Fields: textFields("a")},
		{Fields: textFields("b")},
	}, store.Include{})
	require.NoError(t, err)
	assert.Len(t, views, 2)
	assert.Equal(t, int64(2), f.countRecords(t))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PostCommitFailures.WithLabelValues(metrics.StageIndex)))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.PostCommitFailures.WithLabelValues(metrics.StageEvents)))
}

func TestRecordService_GetListDelete(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	views, err := f.records.BulkCreate(ctx, f.dataset.ID, []*RecordSpec{
		{Fields: textFields("a"), Responses: Some([]ResponseSpec{
			response(f.alice, model.ResponseStatusSubmitted, map[string]any{"sentiment": "positive"}),
		})},
		{Fields: textFields("b")},
		{Fields: textFields("c")},
	}, store.Include{})
	require.NoError(t, err)

	got, err := f.records.Get(ctx, views[0].ID, store.Include{Responses: true})
	require.NoError(t, err)
	assert.Len(t, got.Responses, 1)

	_, err = f.records.Get(ctx, uuid.New(), store.Include{})
	assert.ErrorIs(t, err, errors.ErrRecordNotFound)

	page, err := f.records.List(ctx, f.dataset.ID, ListOptions{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)

	completed, err := f.records.List(ctx, f.dataset.ID, ListOptions{Status: model.RecordStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, int64(1), completed.Total)
	assert.Equal(t, views[0].ID, completed.Items[0].ID)

	_, err = f.records.List(ctx, f.dataset.ID, ListOptions{PageSize: MaxPageSize + 1})
	assert.ErrorIs(t, err, errors.ErrInvalidParam)
	_, err = f.records.List(ctx, f.dataset.ID, ListOptions{Status: "done"})
	assert.ErrorIs(t, err, errors.ErrInvalidParam)

	n, err := f.records.Delete(ctx, f.dataset.ID, []uuid.UUID{views[0].ID, views[1].ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(1), f.countRecords(t))
	require.Len(t, f.indexer.deleted, 1)
	assert.ElementsMatch(t, []uuid.UUID{views[0].ID, views[1].ID}, f.indexer.deleted[0])

	kinds := f.sink.kinds()
	assert.Equal(t, []events.Kind{events.RecordDeleted, events.RecordDeleted}, kinds[len(kinds)-2:])

	_, err = f.records.Delete(ctx, f.dataset.ID, nil)
	assert.ErrorIs(t, err, errors.ErrBatchShape)
}
