package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbopts "github.com/kart-io/labelhub/pkg/options/database"
)

func TestDSN(t *testing.T) {
	opts := dbopts.NewOptions()
	opts.Host = "db"
	opts.Username = "lh"

	tests := []struct {
		name     string
		password string
		mysql    string
		postgres string
	}{
		{
			name:     "plain",
			password: "secret",
			mysql:    "lh:secret@tcp(db:5432)/labelhub?charset=utf8mb4&parseTime=True&loc=Local",
			postgres: "host=db port=5432 user=lh password=secret dbname=labelhub sslmode=disable",
		},
		{
			name:     "special characters",
			password: "it's @ me",
			mysql:    "lh:it%27s+%40+me@tcp(db:5432)/labelhub?charset=utf8mb4&parseTime=True&loc=Local",
			postgres: `host=db port=5432 user=lh password='it\'s @ me' dbname=labelhub sslmode=disable`,
		},
		{
			name:     "empty",
			password: "",
			mysql:    "lh:@tcp(db:5432)/labelhub?charset=utf8mb4&parseTime=True&loc=Local",
			postgres: "host=db port=5432 user=lh password='' dbname=labelhub sslmode=disable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts.Password = tt.password
			assert.Equal(t, tt.mysql, MySQLDSN(opts))
			assert.Equal(t, tt.postgres, PostgresDSN(opts))
		})
	}
}

func TestOpenSQLite(t *testing.T) {
	opts := dbopts.NewOptions()
	opts.Path = ":memory:"

	db, err := Open(context.Background(), opts)
	require.NoError(t, err)
	defer Close(db)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestOpenRejectsInvalidOptions(t *testing.T) {
	opts := dbopts.NewOptions()
	opts.Driver = "oracle"

	_, err := Open(context.Background(), opts)
	assert.ErrorContains(t, err, "unsupported database driver")

	_, err = Open(context.Background(), nil)
	assert.Error(t, err)
}
