package synclog

import "context"

// Repository is the persistence contract for collection run records.
type Repository interface {
	// Create persists a run record.
	Create(ctx context.Context, entry *Entry) error

	// ListRecent returns up to limit entries ordered newest first.
	ListRecent(ctx context.Context, limit int) ([]*Entry, error)
}
