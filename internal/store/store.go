// Package store abstracts the record store behind the handful of operations
// the backend actually uses: single-document inserts, equality-filter reads,
// $set updates and deletes, plus unique indexes and multi-document
// transactions. Production runs on MongoDB; tests run on the in-memory
// implementation.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	// ErrNoDocuments is returned by FindOne when nothing matches the filter.
	ErrNoDocuments = errors.New("store: no documents in result")
	// ErrDuplicateKey is returned by InsertOne when a unique index rejects
	// the document.
	ErrDuplicateKey = errors.New("store: duplicate key")
)

// UpdateResult reports how many documents an update touched.
type UpdateResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// Collection is a single named document collection. Filters are
// field-equality predicates expressed as bson.M.
type Collection interface {
	// InsertOne stores a document and returns the id it was stored under.
	InsertOne(ctx context.Context, doc interface{}) (string, error)
	// FindOne decodes the first matching document into out.
	FindOne(ctx context.Context, filter bson.M, out interface{}) error
	// Find decodes all matching documents into out (a pointer to a slice),
	// optionally sorted by a single field (bson.D of one element, value 1
	// or -1).
	Find(ctx context.Context, filter bson.M, sort bson.D, out interface{}) error
	// UpdateOne applies a $set patch to the first matching document.
	UpdateOne(ctx context.Context, filter bson.M, set bson.M) (*UpdateResult, error)
	// DeleteOne removes the first matching document and reports how many
	// were deleted.
	DeleteOne(ctx context.Context, filter bson.M) (int64, error)
}

// Store is the record store handed to every service at construction.
type Store interface {
	Collection(name string) Collection
	// EnsureUniqueIndex creates a unique index on a single field. Unique
	// indexes are the enforcement point for at-most-once inserts; the
	// application-level existence checks are only an optimization.
	EnsureUniqueIndex(ctx context.Context, collection, field string) error
	// WithTransaction runs fn inside a multi-document transaction. All
	// collection operations inside fn must use the context it receives.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
