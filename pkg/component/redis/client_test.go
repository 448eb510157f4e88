package redis

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	options "github.com/kart-io/labelhub/pkg/options/redis"
)

func TestOptions_PasswordRedacted(t *testing.T) {
	opts := options.NewOptions()
	opts.Password = "supersecret"

	data, err := json.Marshal(opts)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "supersecret")
	assert.Contains(t, string(data), `"password":"[REDACTED]"`)
	assert.Contains(t, string(data), `"host":"127.0.0.1"`)

	assert.NotContains(t, opts.String(), "supersecret")

	opts.Password = ""
	data, err = json.Marshal(opts)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"password":""`)
}

func TestOptions_Validate(t *testing.T) {
	opts := options.NewOptions()
	opts.Port = 0
	assert.Empty(t, opts.Validate(), "disabled options are not checked")

	opts.Enabled = true
	opts.MinIdleConns = opts.PoolSize + 1
	assert.Len(t, opts.Validate(), 2)
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)

	opts := options.NewOptions()
	opts.Enabled = true
	opts.Host = ""
	_, err = New(context.Background(), opts)
	assert.ErrorContains(t, err, "invalid redis options")
}

// TestNew_Live needs a server, set LABELHUB_TEST_REDIS=host:port to run it.
func TestNew_Live(t *testing.T) {
	addr := os.Getenv("LABELHUB_TEST_REDIS")
	if addr == "" {
		t.Skip("LABELHUB_TEST_REDIS not set")
	}

	opts := options.NewOptions()
	opts.Enabled = true
	opts.Host, opts.Port = splitAddr(t, addr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := New(ctx, opts)
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Health()())
	stats := client.HealthWithStats(ctx)
	assert.True(t, stats.Healthy)
	assert.NotNil(t, stats.PoolStats)
}

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	n, err := strconv.Atoi(port)
	require.NoError(t, err)
	return host, n
}
