package biz

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/labelhub/internal/labelhub/events"
	"github.com/kart-io/labelhub/internal/labelhub/metrics"
	"github.com/kart-io/labelhub/internal/labelhub/store"
	"github.com/kart-io/labelhub/internal/model"
	"github.com/kart-io/labelhub/pkg/component/database"
	dbopts "github.com/kart-io/labelhub/pkg/options/database"
)

func newTestStore(t *testing.T) store.Factory {
	t.Helper()

	opts := dbopts.NewOptions()
	opts.Path = ":memory:"
	db, err := database.Open(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	f := store.NewFactory(db)
	require.NoError(t, f.AutoMigrate(context.Background()))
	return f
}

type emitted struct {
	kind events.Kind
	id   uuid.UUID
}

type recordingSink struct {
	mu     sync.Mutex
	events []emitted
	err    error
}

func (s *recordingSink) Emit(_ context.Context, kind events.Kind, r *model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, emitted{kind: kind, id: r.ID})
	return nil
}

func (s *recordingSink) kinds() []events.Kind {
	out := make([]events.Kind, len(s.events))
	for i, e := range s.events {
		out[i] = e.kind
	}
	return out
}

type recordingIndexer struct {
	indexed [][]uuid.UUID
	deleted [][]uuid.UUID
	err     error
}

func ids(records []*model.Record) []uuid.UUID {
	out := make([]uuid.UUID, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func (x *recordingIndexer) IndexRecords(_ context.Context, _ *model.Dataset, records []*model.Record) error {
	if x.err != nil {
		return x.err
	}
	x.indexed = append(x.indexed, ids(records))
	return nil
}

func (x *recordingIndexer) DeleteRecords(_ context.Context, _ *model.Dataset, records []*model.Record) error {
	if x.err != nil {
		return x.err
	}
	x.deleted = append(x.deleted, ids(records))
	return nil
}

var errUnavailable = errors.New("unavailable")

// fixture is a published dataset with two workspace annotators and one
// user outside the workspace.
type fixture struct {
	store     store.Factory
	datasets  *DatasetService
	users     *UserService
	records   *RecordService
	sink      *recordingSink
	indexer   *recordingIndexer
	metrics   *metrics.Metrics
	dataset   *model.Dataset
	alice     *model.User
	bob       *model.User
	outsider  *model.User
	questions map[string]*model.Question
}

func newFixture(t *testing.T, minSubmitted int, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		store:     newTestStore(t),
		sink:      &recordingSink{},
		indexer:   &recordingIndexer{},
		metrics:   metrics.New(prometheus.NewRegistry()),
		questions: map[string]*model.Question{},
	}
	f.datasets = NewDatasetService(f.store)
	f.users = NewUserService(f.store)
	f.records = NewRecordService(f.store, f.indexer, f.sink, append([]Option{WithMetrics(f.metrics)}, opts...)...)

	ws, err := f.users.CreateWorkspace(ctx, &CreateWorkspaceRequest{Name: "annotation"})
	require.NoError(t, err)

	newUser := func(name string, member bool) *model.User {
		u, err := f.users.Create(ctx, &CreateUserRequest{Username: name, FirstName: name, Role: model.UserRoleAnnotator})
		require.NoError(t, err)
		if member {
			require.NoError(t, f.users.AddWorkspaceUser(ctx, ws.ID, u.ID))
		}
		return u
	}
	f.alice = newUser("alice", true)
	f.bob = newUser("bob", true)
	f.outsider = newUser("mallory", false)

	d, err := f.datasets.Create(ctx, &CreateDatasetRequest{WorkspaceID: ws.ID, Name: "reviews", MinSubmitted: minSubmitted})
	require.NoError(t, err)

	_, err = f.datasets.AddField(ctx, d.ID, &CreateFieldRequest{Name: "text", Required: true})
	require.NoError(t, err)
	_, err = f.datasets.AddField(ctx, d.ID, &CreateFieldRequest{Name: "context"})
	require.NoError(t, err)

	questions := []*CreateQuestionRequest{
		{Name: "sentiment", Required: true, Settings: map[string]any{
			"type": "label_selection",
			"options": []any{
				map[string]any{"value": "positive", "text": "Positive"},
				map[string]any{"value": "negative", "text": "Negative"},
			},
		}},
		{Name: "comment", Settings: map[string]any{"type": "text"}},
		{Name: "entities", Settings: map[string]any{
			"type":    "span",
			"field":   "text",
			"options": []any{map[string]any{"value": "PER"}, map[string]any{"value": "ORG"}},
		}},
	}
	for _, req := range questions {
		q, err := f.datasets.AddQuestion(ctx, d.ID, req)
		require.NoError(t, err)
		f.questions[q.Name] = q
	}

	_, err = f.datasets.AddMetadataProperty(ctx, d.ID, &CreateMetadataPropertyRequest{
		Name: "source", Settings: map[string]any{"type": "terms", "values": []any{"web", "mail"}},
	})
	require.NoError(t, err)
	_, err = f.datasets.AddMetadataProperty(ctx, d.ID, &CreateMetadataPropertyRequest{
		Name: "votes", Settings: map[string]any{"type": "integer", "min": 0, "max": 10},
	})
	require.NoError(t, err)
	_, err = f.datasets.AddVectorSettings(ctx, d.ID, &CreateVectorSettingsRequest{Name: "embedding", Dimensions: 3})
	require.NoError(t, err)
	_, err = f.datasets.AddVectorSettings(ctx, d.ID, &CreateVectorSettingsRequest{Name: "summary", Dimensions: 2})
	require.NoError(t, err)

	f.dataset, err = f.datasets.Publish(ctx, d.ID)
	require.NoError(t, err)
	return f
}

func textFields(text string) Optional[map[string]any] {
	return Some(map[string]any{"text": text})
}

func response(user *model.User, status model.ResponseStatus, values map[string]any) ResponseSpec {
	r := ResponseSpec{UserID: user.ID, Status: status, Values: map[string]ResponseValue{}}
	for k, v := range values {
		r.Values[k] = ResponseValue{Value: v}
	}
	return r
}

func strPtr(s string) *string {
	return &s
}

func (f *fixture) countRecords(t *testing.T) int64 {
	t.Helper()
	list, err := f.records.List(context.Background(), f.dataset.ID, ListOptions{})
	require.NoError(t, err)
	return list.Total
}
