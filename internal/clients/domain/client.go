// Package clients holds the read-only client reference data this service
// validates billing rows against. The table itself is owned and populated by
// an external system.
package clients

import (
	"context"
	"time"
)

// Client is one known supply-point customer.
type Client struct {
	ID        int64
	CUPS      string
	Name      string
	CreatedAt time.Time
}

// Directory is the lookup surface the pipeline consumes.
type Directory interface {
	// Exists reports whether the CUPS code is known.
	Exists(ctx context.Context, cups string) (bool, error)
	// FindByCUPS returns the client, or nil when unknown.
	FindByCUPS(ctx context.Context, cups string) (*Client, error)
}
