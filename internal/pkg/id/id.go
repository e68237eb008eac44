package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable by
// creation time, which keeps user rows and notification records in insertion
// order in both store backends.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
