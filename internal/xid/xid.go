package xid

import (
	"github.com/google/uuid"
)

// New returns a random UUIDv4 string for use as a record id.
func New() string {
	return uuid.NewString()
}

