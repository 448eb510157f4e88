package id

import (
	"bytes"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestULIDGenerator(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	g := NewULIDGenerator(WithClock(func() time.Time { return fixed }))

	ids := make([]string, 100)
	for i := range ids {
		ids[i] = g.Generate()
		require.Len(t, ids[i], 26)
	}
	assert.True(t, sort.StringsAreSorted(ids), "ids within one millisecond must stay ordered")

	u, err := ParseULID(ids[0])
	require.NoError(t, err)
	assert.Equal(t, fixed.UnixMilli(), int64(u.Time()))

	_, err = ParseULID("not-a-ulid")
	assert.ErrorIs(t, err, ErrInvalidULID)
}

func TestULIDGenerator_Reader(t *testing.T) {
	now := func() time.Time { return time.UnixMilli(42) }
	a := NewULIDGenerator(WithClock(now), WithULIDReader(bytes.NewReader(make([]byte, 64))))
	b := NewULIDGenerator(WithClock(now), WithULIDReader(bytes.NewReader(make([]byte, 64))))
	assert.Equal(t, a.Generate(), b.Generate())
	assert.NotEmpty(t, NewULID())
}

func TestParseUUIDList(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	tests := []struct {
		name    string
		in      string
		want    []uuid.UUID
		wantErr bool
	}{
		{name: "empty", in: "", want: nil},
		{name: "single", in: a.String(), want: []uuid.UUID{a}},
		{name: "spaces and repeats", in: " " + a.String() + ", ," + b.String() + "," + a.String(), want: []uuid.UUID{a, b}},
		{name: "invalid", in: a.String() + ",nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUUIDList(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidUUID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
