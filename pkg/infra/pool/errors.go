// Package pool provides named ants worker pools.
package pool

import "errors"

var (
	// ErrPoolClosed is returned when submitting to a released pool.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrPoolOverload is returned by non-blocking pools that are full.
	ErrPoolOverload = errors.New("pool is overloaded")

	// ErrInvalidPoolConfig is returned for a non-positive capacity.
	ErrInvalidPoolConfig = errors.New("invalid pool config")
)
