// Package redis provides the redis client backing the record event stream.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	options "github.com/kart-io/labelhub/pkg/options/redis"
)

// Client wraps a go-redis client built from Options.
//
// Example usage:
//
//	opts := options.NewOptions()
//	opts.Enabled = true
//
//	client, err := redis.New(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	sink := events.NewRedisStreamSink(client.Client(), "labelhub:record-events", 10000)
type Client struct {
	client *goredis.Client
	opts   *options.Options
}

// New creates a new Redis client from the provided options and verifies
// connectivity with a ping.
func New(ctx context.Context, opts *options.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("redis options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid redis options: %w", utilerrors.NewAggregate(errs))
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr(),
		Password:     opts.Password,
		DB:           opts.Database,
		MaxRetries:   opts.MaxRetries,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolTimeout:  opts.PoolTimeout,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr(), err)
	}
	return &Client{client: rdb, opts: opts}, nil
}

// Name returns the component name used in health reports.
func (c *Client) Name() string {
	return "redis"
}

// Ping checks if the connection to Redis is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Health returns a checker with a bounded timeout.
func (c *Client) Health() func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return c.Ping(ctx)
	}
}

// Client returns the underlying go-redis client.
func (c *Client) Client() *goredis.Client {
	return c.client
}

// Options returns the Redis options used by this client.
func (c *Client) Options() *options.Options {
	return c.opts
}
