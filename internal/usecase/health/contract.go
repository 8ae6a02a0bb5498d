package health

import "context"

// CachePinger checks cache store availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// BackendPinger checks the configured database backends.
type BackendPinger interface {
	Ping(ctx context.Context) error
}
