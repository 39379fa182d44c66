package repository

import (
	"context"
	"errors"

	"docstore/internal/model"
)

// ErrDuplicateFilename is returned by Create when the filename is already
// taken anywhere in the store (the constraint is global, not per-owner).
var ErrDuplicateFilename = errors.New("filename already exists")

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here — strictly persistence operations. Reads and deletes
// are always scoped by (id, owner); no query exposes a document by id alone.
type DocumentRepository interface {
	// Create inserts a new document record. The database assigns the ID.
	// Returns ErrDuplicateFilename on a filename collision.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByIDAndOwner returns the document only if it belongs to owner.
	// Absence surfaces as sql.ErrNoRows.
	FindByIDAndOwner(ctx context.Context, id int64, owner string) (*model.Document, error)

	// ListByOwner returns the owner's documents in insertion order (ascending ID).
	ListByOwner(ctx context.Context, owner string) ([]model.Document, error)

	// DeleteByIDAndOwner removes the record and reports whether a row was deleted.
	DeleteByIDAndOwner(ctx context.Context, id int64, owner string) (bool, error)
}
