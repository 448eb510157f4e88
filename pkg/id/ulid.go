// Package id generates and parses the identifiers used across LabelHub:
// UUIDs for entities and ULIDs for time ordered event ids.
package id

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates monotonic ULIDs. Ids generated within the same
// millisecond still sort in generation order.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// ULIDOption is a functional option for ULIDGenerator.
type ULIDOption func(*ulidConfig)

type ulidConfig struct {
	reader io.Reader
	now    func() time.Time
}

// WithULIDReader sets a custom random reader.
func WithULIDReader(r io.Reader) ULIDOption {
	return func(c *ulidConfig) {
		c.reader = r
	}
}

// WithClock sets the clock used for the timestamp part.
func WithClock(now func() time.Time) ULIDOption {
	return func(c *ulidConfig) {
		c.now = now
	}
}

// NewULIDGenerator creates a new ULID generator.
func NewULIDGenerator(opts ...ULIDOption) *ULIDGenerator {
	c := &ulidConfig{reader: rand.Reader, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return &ULIDGenerator{
		entropy: ulid.Monotonic(c.reader, 0),
		now:     c.now,
	}
}

// Generate creates a new ULID string.
func (g *ULIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}

// ParseULID parses a ULID string.
func ParseULID(s string) (ulid.ULID, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return ulid.ULID{}, ErrInvalidULID
	}
	return u, nil
}

var defaultULID = NewULIDGenerator()

// NewULID returns a ULID from the process wide generator.
func NewULID() string {
	return defaultULID.Generate()
}
