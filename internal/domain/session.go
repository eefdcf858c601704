package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers, matching what till clients send.
	decimal.MarshalJSONWithoutQuotes = true
}

// Session identifies the acting owner for one request. It is built from a
// verified bearer token and handed to every tenant-scoped service call.
type Session struct {
	OwnerID   string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (s Session) Valid(now time.Time) bool {
	if s.OwnerID == "" {
		return false
	}
	if !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt) {
		return false
	}
	return true
}
