package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type item struct {
	ID     uint `gorm:"primaryKey"`
	Name   string
	Status string
	Score  int
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&item{}))
	return db
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	items := []item{
		{Name: "a", Status: "pending", Score: 1},
		{Name: "b", Status: "completed", Score: 2},
		{Name: "c", Status: "pending", Score: 3},
		{Name: "d", Status: "pending", Score: 4},
		{Name: "e", Status: "completed", Score: 5},
	}
	require.NoError(t, db.Create(&items).Error)
}

func TestWhere_Pagination(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	tests := []struct {
		name      string
		whr       *Options
		wantLen   int
		wantFirst string
	}{
		{name: "no limit", whr: NewWhere(), wantLen: 5, wantFirst: "a"},
		{name: "limit", whr: NewWhere(WithLimit(2)), wantLen: 2, wantFirst: "a"},
		{name: "offset and limit", whr: NewWhere(WithOffset(2), WithLimit(2)), wantLen: 2, wantFirst: "c"},
		{name: "page 2", whr: NewWhere(WithPage(2, 2)), wantLen: 2, wantFirst: "c"},
		{name: "last page", whr: NewWhere().P(3, 2), wantLen: 1, wantFirst: "e"},
		{name: "page below one", whr: NewWhere(WithPage(0, 3)), wantLen: 3, wantFirst: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []item
			require.NoError(t, tt.whr.Page(db.Order("id")).Find(&got).Error)
			require.Len(t, got, tt.wantLen)
			assert.Equal(t, tt.wantFirst, got[0].Name)
		})
	}
}

func TestWhere_Filters(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	tests := []struct {
		name    string
		whr     *Options
		wantLen int
	}{
		{name: "with filter", whr: NewWhere(WithFilter(map[any]any{"status": "pending"})), wantLen: 3},
		{name: "F shortcut", whr: F("status", "completed"), wantLen: 2},
		{name: "F pairs", whr: F("status", "pending", "score", 3), wantLen: 1},
		{name: "F odd args ignored", whr: F("status"), wantLen: 5},
		{name: "Q condition", whr: NewWhere().Q("score > ?", 2), wantLen: 3},
		{name: "Q with IN", whr: NewWhere().Q("name IN ?", []string{"a", "e"}), wantLen: 2},
		{name: "filter and Q", whr: F("status", "pending").Q("score >= ?", 3), wantLen: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []item
			require.NoError(t, tt.whr.Where(db).Find(&got).Error)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestWhere_Clauses(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	var got []item
	whr := NewWhere(WithClauses(clause.OrderBy{
		Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "score"}, Desc: true}},
	}))
	require.NoError(t, whr.Where(db).Find(&got).Error)
	require.Len(t, got, 5)
	assert.Equal(t, "e", got[0].Name)

	var count int64
	require.NoError(t, F("status", "pending").Where(db.Model(&item{})).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}
