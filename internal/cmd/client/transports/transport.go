package transports

import "context"

// Entry is one log entry as returned by Read.
type Entry struct {
	ID        uint64 `json:"id"`
	Timestamp int64  `json:"ts"`
	Text      string `json:"text"`
}

// AppendRequest describes a single log call.
type AppendRequest struct {
	Name      string
	Level     string
	Message   string
	Timestamp int64
}

// ReadRequest selects the store, direction and optional CEL filter of a
// read. Limit 0 means no limit.
type ReadRequest struct {
	Store  string
	Order  string
	Filter string
	Limit  int
}

// LogTransport abstracts how the CLI reaches a log: a running server or
// the data directory directly.
type LogTransport interface {
	Append(ctx context.Context, req AppendRequest) error
	Read(ctx context.Context, req ReadRequest) ([]Entry, error)
	Count(ctx context.Context, store string) (int, error)
	// Size reports the configured store's size in bytes, -1 when undefined.
	Size(ctx context.Context) (int64, error)
	Clear(ctx context.Context, store string) error
	// Drop deletes a store other than the one being appended to.
	Drop(ctx context.Context, store string) error
	Stores(ctx context.Context) ([]string, error)
	Close() error
}
