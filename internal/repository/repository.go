// Package repository declares the record store contract. Implementations
// live in subpackages: sqlite (embedded) and supabase (remote PostgREST).
package repository

import (
	"context"

	"github.com/sakif/castiq/internal/model"
)

// CatchRepository is a thin binding to the "catches" collection.
//
// Every read and write except Insert and Probe is scoped by owner. Update and
// Delete return (nil, nil) when no row matched both id and owner; that is
// not an error, and callers must tell it apart from a failed call.
//
// Each method is a single round trip: no transactions, retries or batching.
// Store failures are returned as *apperror.AppError wrapping ErrStore.
type CatchRepository interface {
	Insert(ctx context.Context, c *model.Catch) (*model.Catch, error)
	ListByOwner(ctx context.Context, owner string) ([]model.Catch, error)
	Update(ctx context.Context, id int64, owner string, c *model.Catch) (*model.Catch, error)
	Delete(ctx context.Context, id int64, owner string) (*model.Catch, error)

	// Probe reads at most one row and reports how many it read.
	Probe(ctx context.Context) (int, error)

	Close() error
}
