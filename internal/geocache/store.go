// Package geocache holds resolved geocoding results for the lifetime of the
// process. Only successful lookups are stored; a failed address is retried on
// every request. Backends are selected by configuration.
package geocache

import (
	"context"
	"errors"
	"fmt"

	"walkroute/internal/model"
)

// Store is the cache interface shared by all backends. Put is
// insert-if-absent: the first coordinate written for a key wins and
// concurrent writers never corrupt an entry.
type Store interface {
	Get(ctx context.Context, key string) (model.Coordinate, bool, error)
	Put(ctx context.Context, key string, c model.Coordinate) error
}

var ErrUnavailable = errors.New("geocache: backend unavailable")

// Key builds the cache key for a lookup. Mode distinguishes the strict and
// fallback resolution passes so a fallback hit never satisfies a strict
// lookup.
func Key(mode, address, city string) string {
	return fmt.Sprintf("%s|%s|%s", mode, address, city)
}
