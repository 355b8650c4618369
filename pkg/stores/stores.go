// Package stores implements the persistence layer: one store per
// entity plus the query executor that runs compiled filter and
// grouping queries. Every read is scoped to a user id; no method
// returns rows owned by another user.
package stores

import (
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a row does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert violates a unique
	// constraint, e.g. a client-supplied session id that already
	// exists.
	ErrDuplicate = errors.New("duplicate key")
)

func now() time.Time {
	return time.Now().UTC()
}
