package biz

import (
	"github.com/google/uuid"

	"github.com/kart-io/labelhub/internal/model"
)

type changeState int

const (
	unchanged changeState = iota
	added
	modified
)

type entry[V any] struct {
	value *V
	state changeState
}

// children is an owned collection keyed by a natural key. It records which
// members were added, modified or removed since it was loaded.
type children[K comparable, V any] struct {
	order   []K
	items   map[K]*entry[V]
	removed []*V
}

func newChildren[K comparable, V any](loaded []*V, key func(*V) K) *children[K, V] {
	c := &children[K, V]{items: make(map[K]*entry[V], len(loaded))}
	for _, v := range loaded {
		k := key(v)
		c.order = append(c.order, k)
		c.items[k] = &entry[V]{value: v}
	}
	return c
}

func (c *children[K, V]) get(k K) (*V, bool) {
	e, ok := c.items[k]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// upsert applies fn to the member under k, creating it with create first
// when absent.
func (c *children[K, V]) upsert(k K, create func() *V, fn func(*V)) {
	e, ok := c.items[k]
	if !ok {
		e = &entry[V]{value: create(), state: added}
		c.items[k] = e
		c.order = append(c.order, k)
	} else if e.state == unchanged {
		e.state = modified
	}
	fn(e.value)
}

func (c *children[K, V]) remove(k K) {
	e, ok := c.items[k]
	if !ok {
		return
	}
	delete(c.items, k)
	for i, key := range c.order {
		if key == k {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	if e.state != added {
		c.removed = append(c.removed, e.value)
	}
}

func (c *children[K, V]) keys() []K {
	return append([]K(nil), c.order...)
}

func (c *children[K, V]) values() []*V {
	out := make([]*V, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.items[k].value)
	}
	return out
}

func (c *children[K, V]) changed(state changeState) []*V {
	var out []*V
	for _, k := range c.order {
		if e := c.items[k]; e.state == state {
			out = append(out, e.value)
		}
	}
	return out
}

// recordAggregate is a record with its responses keyed by user, suggestions
// keyed by question and vectors keyed by vector settings.
type recordAggregate struct {
	position int
	created  bool
	record   *model.Record

	responses   *children[uuid.UUID, model.Response]
	suggestions *children[uuid.UUID, model.Suggestion]
	vectors     *children[uuid.UUID, model.Vector]
}

func newAggregate(position int, record *model.Record, created bool) *recordAggregate {
	return &recordAggregate{
		position: position,
		created:  created,
		record:   record,
		responses: newChildren(record.Responses, func(r *model.Response) uuid.UUID {
			return r.UserID
		}),
		suggestions: newChildren(record.Suggestions, func(s *model.Suggestion) uuid.UUID {
			return s.QuestionID
		}),
		vectors: newChildren(record.Vectors, func(v *model.Vector) uuid.UUID {
			return v.VectorSettingsID
		}),
	}
}

// recomputeStatus derives the record status from its submitted responses.
func (a *recordAggregate) recomputeStatus(minSubmitted int) {
	submitted := 0
	for _, r := range a.responses.values() {
		if r.Status == model.ResponseStatusSubmitted {
			submitted++
		}
	}
	if submitted >= minSubmitted {
		a.record.Status = model.RecordStatusCompleted
	} else {
		a.record.Status = model.RecordStatusPending
	}
}

// sync copies the child collections back onto the record.
func (a *recordAggregate) sync() *model.Record {
	a.record.Responses = a.responses.values()
	a.record.Suggestions = a.suggestions.values()
	a.record.Vectors = a.vectors.values()
	return a.record
}
