package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"docstore/internal/model"
	"docstore/internal/repository"
	"docstore/internal/storage"
)

var (
	// ErrEmptyUpload rejects uploads with no content or no filename.
	ErrEmptyUpload = errors.New("empty upload")
	// ErrUnsupportedType rejects files whose extension is not .pdf.
	ErrUnsupportedType = errors.New("only PDF files are allowed")
	// ErrDuplicateName reports a filename collision; the constraint is
	// global across all owners.
	ErrDuplicateName = errors.New("filename already exists")
	// ErrNotFound means no document with that id belongs to the caller.
	ErrNotFound = errors.New("document not found")
	// ErrInconsistent means a metadata record exists but its blob is
	// missing. Distinct from ErrNotFound: it indicates a storage fault,
	// not a legitimate absence.
	ErrInconsistent = errors.New("record exists but blob missing")
	// ErrStorageUnavailable wraps blob-layer I/O failures.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// DocumentService keeps the blob set and the metadata record set mutually
// consistent under upload, retrieval, listing and deletion, scoped per owner.
type DocumentService interface {
	// Upload stores the content as a blob, then records its metadata.
	Upload(ctx context.Context, owner, fileName string, r io.Reader, size int64) (*model.Document, error)

	// Get returns the owner's document and verifies its blob is present.
	// It does not stream content; callers open the blob separately.
	Get(ctx context.Context, owner string, id int64) (*model.Document, error)

	// List returns the owner's documents in insertion order. An empty
	// slice is a valid result, not an error.
	List(ctx context.Context, owner string) ([]model.Document, error)

	// Delete removes the metadata record, then the blob best-effort.
	Delete(ctx context.Context, owner string, id int64) error
}

type documentService struct {
	store storage.BlobStore
	repo  repository.DocumentRepository
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.BlobStore, repo repository.DocumentRepository) DocumentService {
	return &documentService{store: store, repo: repo}
}

// Upload writes the blob before inserting the record: a failed write leaves
// no dangling record, while a failed insert leaves at worst an orphan blob,
// which later operations never observe.
func (s *documentService) Upload(ctx context.Context, owner, fileName string, r io.Reader, size int64) (*model.Document, error) {
	if r == nil || size <= 0 || fileName == "" {
		return nil, ErrEmptyUpload
	}
	if strings.ToLower(filepath.Ext(fileName)) != ".pdf" {
		return nil, ErrUnsupportedType
	}

	if err := s.store.Put(ctx, fileName, r, size); err != nil {
		if errors.Is(err, storage.ErrInvalidName) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: write blob %s: %v", ErrStorageUnavailable, fileName, err)
	}

	doc := &model.Document{
		FileName:   fileName,
		Owner:      owner,
		Size:       size,
		UploadedAt: time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateFilename) {
			// The write above already replaced any prior same-named blob;
			// the surviving record still describes the surviving bytes.
			return nil, ErrDuplicateName
		}
		// The blob just written is now an orphan. Tolerated: unreachable
		// orphans cost less than committed records pointing at nothing.
		logEvent(map[string]any{
			"component": "document_service",
			"event":     "orphan_blob",
			"level":     "warn",
			"filename":  fileName,
			"owner":     owner,
			"error":     err.Error(),
		})
		return nil, fmt.Errorf("save metadata for %s: %w", fileName, err)
	}
	return stored, nil
}

// Get enforces per-owner visibility and cross-checks the blob store so a
// dangling record surfaces as ErrInconsistent rather than a 404.
func (s *documentService) Get(ctx context.Context, owner string, id int64) (*model.Document, error) {
	doc, err := s.repo.FindByIDAndOwner(ctx, id, owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	exists, err := s.store.Exists(ctx, doc.FileName)
	if err != nil {
		return nil, fmt.Errorf("%w: probe blob %s: %v", ErrStorageUnavailable, doc.FileName, err)
	}
	if !exists {
		logEvent(map[string]any{
			"component":   "document_service",
			"event":       "dangling_record",
			"level":       "error",
			"document_id": doc.ID,
			"filename":    doc.FileName,
			"owner":       owner,
		})
		return nil, fmt.Errorf("%w: document %d (%s)", ErrInconsistent, doc.ID, doc.FileName)
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, owner string) ([]model.Document, error) {
	return s.repo.ListByOwner(ctx, owner)
}

// Delete removes the metadata record first: once the record is gone the
// document is logically deleted, and a crash before the blob removal leaves
// an orphaned-but-unreachable blob instead of a dangling record.
func (s *documentService) Delete(ctx context.Context, owner string, id int64) error {
	doc, err := s.repo.FindByIDAndOwner(ctx, id, owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	deleted, err := s.repo.DeleteByIDAndOwner(ctx, id, owner)
	if err != nil {
		return fmt.Errorf("delete metadata for %d: %w", id, err)
	}
	if !deleted {
		// A concurrent delete won the race.
		return ErrNotFound
	}

	if err := s.store.Delete(ctx, doc.FileName); err != nil {
		// Logical delete already committed; an orphan blob carries no
		// correctness risk for future operations.
		logEvent(map[string]any{
			"component":   "document_service",
			"event":       "blob_delete_failed",
			"level":       "warn",
			"document_id": id,
			"filename":    doc.FileName,
			"owner":       owner,
			"error":       err.Error(),
		})
	}
	return nil
}

func logEvent(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal service log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
