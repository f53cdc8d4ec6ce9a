package store

import (
	"context"
	"errors"

	"github.com/agenthands/annuaire/internal/record"
)

var (
	// ErrNotFound signals that no record carries the requested numero.
	ErrNotFound = errors.New("store: record not found")
	// ErrMissingKey signals a replacement without a numero.
	ErrMissingKey = errors.New("store: missing 'numero' field for replacement")
)

// DefaultSimilarity is the trigram similarity a candidate must exceed to be a duplicate.
const DefaultSimilarity = 0.3

// Store is the relational record store shared by the API handlers and the importer.
// Records passed in are expected to be normalized for their kind.
type Store interface {
	List(ctx context.Context, kind record.Kind) ([]record.Record, error)
	Create(ctx context.Context, kind record.Kind, rec record.Record) (int64, error)
	Replace(ctx context.Context, kind record.Kind, recs []record.Record) error
	// FindSimilar returns the stored records that collide with rec, closest first.
	FindSimilar(ctx context.Context, kind record.Kind, rec record.Record, threshold float64) ([]record.Record, error)
	// InTx runs fn against a store whose writes commit only if fn returns nil.
	InTx(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
}
