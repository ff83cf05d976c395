package avatar

import "context"

// Store defines the interface for avatar session storage, keyed by clientId.
// Storage-only: the staleness sweep lives in the store sweeper component.
type Store interface {
	// Set merges a partial update onto the record for clientID, creating it
	// if absent. CreatedAt is preserved across repeated Set calls and
	// LastActivity is refreshed. Returns the merged record.
	Set(ctx context.Context, clientID string, update Update) *Record

	// Get returns the record for clientID or nil, touching LastActivity.
	Get(ctx context.Context, clientID string) *Record

	// GetByProviderSessionID scans all records for a provider session match.
	GetByProviderSessionID(ctx context.Context, providerSessionID string) *Record

	// UpdateStatus transitions the record's status. Returns false if absent.
	UpdateStatus(ctx context.Context, clientID string, status Status) bool

	// Remove deletes and returns the record, or nil if absent.
	Remove(ctx context.Context, clientID string) *Record

	// ListActive returns all records with status active.
	ListActive(ctx context.Context) []*Record

	// List returns all records (for sweep iteration). Does not touch LastActivity.
	List(ctx context.Context) []*Record

	// Stats returns session counts by status.
	Stats(ctx context.Context) Stats
}
