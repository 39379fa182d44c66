package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"docstore/internal/model"
	"docstore/internal/repository"
)

// uniqueViolation is the SQLSTATE raised when the documents_filename_key
// constraint rejects an insert.
const uniqueViolation = "23505"

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Create inserts a new document row and returns the stored record with its
// database-assigned ID.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (filename, owner_id, size_bytes, uploaded_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, filename, owner_id, size_bytes, uploaded_at
	`
	row := r.db.QueryRowContext(ctx, q,
		doc.FileName,
		doc.Owner,
		doc.Size,
		doc.UploadedAt,
	)
	var out model.Document
	if err := row.Scan(
		&out.ID,
		&out.FileName,
		&out.Owner,
		&out.Size,
		&out.UploadedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, repository.ErrDuplicateFilename
		}
		return nil, err
	}
	return &out, nil
}

// FindByIDAndOwner fetches a single document scoped to its owner.
func (r *DocumentPostgres) FindByIDAndOwner(ctx context.Context, id int64, owner string) (*model.Document, error) {
	const q = `
		SELECT id, filename, owner_id, size_bytes, uploaded_at
		FROM documents
		WHERE id = $1 AND owner_id = $2
	`
	row := r.db.QueryRowContext(ctx, q, id, owner)
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.FileName,
		&d.Owner,
		&d.Size,
		&d.UploadedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListByOwner returns the owner's documents in insertion order.
func (r *DocumentPostgres) ListByOwner(ctx context.Context, owner string) ([]model.Document, error) {
	const q = `
		SELECT id, filename, owner_id, size_bytes, uploaded_at
		FROM documents
		WHERE owner_id = $1
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(
			&d.ID,
			&d.FileName,
			&d.Owner,
			&d.Size,
			&d.UploadedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteByIDAndOwner removes the row if it belongs to owner and reports
// whether anything was deleted.
func (r *DocumentPostgres) DeleteByIDAndOwner(ctx context.Context, id int64, owner string) (bool, error) {
	const q = `DELETE FROM documents WHERE id = $1 AND owner_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, owner)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
