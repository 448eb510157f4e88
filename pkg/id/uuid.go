package id

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidUUID is returned for malformed UUIDs.
	ErrInvalidUUID = errors.New("invalid UUID format")
	// ErrInvalidULID is returned for malformed ULIDs.
	ErrInvalidULID = errors.New("invalid ULID format")
)

// ParseUUID parses a canonical UUID string.
func ParseUUID(s string) (uuid.UUID, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidUUID, s)
	}
	return u, nil
}

// ParseUUIDList parses a comma separated list of UUIDs, ignoring empty
// items and keeping the first occurrence of repeated ones.
func ParseUUIDList(s string) ([]uuid.UUID, error) {
	var out []uuid.UUID
	seen := map[uuid.UUID]struct{}{}
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		u, err := ParseUUID(part)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out, nil
}
