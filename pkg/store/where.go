// Package store provides composable gorm query conditions shared by the
// service stores.
package store

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultLimit = -1

// Option configures a Options value.
type Option func(*Options)

// Options holds the conditions applied to a gorm query.
type Options struct {
	// Offset defines the beginning of the result set, zero based.
	Offset int `json:"offset"`
	// Limit defines the maximum number of rows, -1 disables it.
	Limit int `json:"limit"`
	// Filters are equality conditions keyed by column.
	Filters map[any]any
	// Clauses are raw gorm clauses such as ORDER BY.
	Clauses []clause.Expression
	queries []query
}

type query struct {
	query any
	args  []any
}

// WithOffset sets the offset, negative values reset it to zero.
func WithOffset(offset int64) Option {
	return func(o *Options) {
		if offset < 0 {
			offset = 0
		}
		o.Offset = int(offset)
	}
}

// WithLimit sets the limit, non-positive values disable it.
func WithLimit(limit int64) Option {
	return func(o *Options) {
		if limit <= 0 {
			limit = defaultLimit
		}
		o.Limit = int(limit)
	}
}

// WithPage converts a 1-based page and page size into offset and limit.
func WithPage(page int, pageSize int) Option {
	return func(o *Options) {
		if page < 1 {
			page = 1
		}
		if pageSize <= 0 {
			pageSize = defaultLimit
			o.Offset = 0
		} else {
			o.Offset = (page - 1) * pageSize
		}
		o.Limit = pageSize
	}
}

// WithFilter merges equality conditions.
func WithFilter(filter map[any]any) Option {
	return func(o *Options) {
		for k, v := range filter {
			o.Filters[k] = v
		}
	}
}

// WithClauses appends raw clauses.
func WithClauses(conds ...clause.Expression) Option {
	return func(o *Options) {
		o.Clauses = append(o.Clauses, conds...)
	}
}

// NewWhere builds query conditions from the options.
func NewWhere(opts ...Option) *Options {
	o := &Options{
		Offset:  0,
		Limit:   defaultLimit,
		Filters: map[any]any{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// O sets the offset.
func (o *Options) O(offset int) *Options {
	if offset < 0 {
		offset = 0
	}
	o.Offset = offset
	return o
}

// L sets the limit.
func (o *Options) L(limit int) *Options {
	if limit <= 0 {
		limit = defaultLimit
	}
	o.Limit = limit
	return o
}

// P sets offset and limit from a page.
func (o *Options) P(page int, pageSize int) *Options {
	WithPage(page, pageSize)(o)
	return o
}

// C appends clauses.
func (o *Options) C(conds ...clause.Expression) *Options {
	o.Clauses = append(o.Clauses, conds...)
	return o
}

// Q appends a free form condition, e.g. Q("id IN ?", ids).
func (o *Options) Q(q any, args ...any) *Options {
	o.queries = append(o.queries, query{query: q, args: args})
	return o
}

// F adds equality filters from key/value pairs.
func (o *Options) F(kvs ...any) *Options {
	if len(kvs)%2 != 0 {
		return o
	}
	for i := 0; i < len(kvs); i += 2 {
		o.Filters[kvs[i]] = kvs[i+1]
	}
	return o
}

// Where applies the conditions to db without pagination.
func (o *Options) Where(db *gorm.DB) *gorm.DB {
	for _, q := range o.queries {
		db = db.Where(q.query, q.args...)
	}
	if len(o.Filters) > 0 {
		db = db.Where(o.Filters)
	}
	return db.Clauses(o.Clauses...)
}

// Page applies the conditions plus offset and limit.
func (o *Options) Page(db *gorm.DB) *gorm.DB {
	return o.Where(db).Offset(o.Offset).Limit(o.Limit)
}

// F is a shortcut for NewWhere().F(kvs...).
func F(kvs ...any) *Options {
	return NewWhere().F(kvs...)
}
