package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"

	"docstore/internal/model"
	"docstore/internal/repository"
	repoMocks "docstore/internal/repository/mocks"
	"docstore/internal/storage"
	storeMocks "docstore/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		owner      string
		fileName   string
		size       int64
		setupMocks func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) io.Reader
		wantErr    error
		wantErrMsg string
	}{
		{
			name:     "happy path",
			owner:    "user-a",
			fileName: "report.pdf",
			size:     11,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("hello world")
				mStore.On("Put", ctx, "report.pdf", r, int64(11)).Return(nil)
				mRepo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.FileName == "report.pdf" && doc.Owner == "user-a" && doc.Size == 11
				})).Return(&model.Document{ID: 1, FileName: "report.pdf", Owner: "user-a", Size: 11}, nil)
				return r
			},
		},
		{
			name:     "uppercase extension accepted",
			owner:    "user-a",
			fileName: "REPORT.PDF",
			size:     3,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("abc")
				mStore.On("Put", ctx, "REPORT.PDF", r, int64(3)).Return(nil)
				mRepo.On("Create", ctx, mock.Anything).
					Return(&model.Document{ID: 2, FileName: "REPORT.PDF"}, nil)
				return r
			},
		},
		{
			name:     "empty content",
			owner:    "user-a",
			fileName: "report.pdf",
			size:     0,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				return strings.NewReader("")
			},
			wantErr: ErrEmptyUpload,
		},
		{
			name:     "missing filename",
			owner:    "user-a",
			fileName: "",
			size:     5,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				return strings.NewReader("hello")
			},
			wantErr: ErrEmptyUpload,
		},
		{
			name:     "nil reader",
			owner:    "user-a",
			fileName: "report.pdf",
			size:     5,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				return nil
			},
			wantErr: ErrEmptyUpload,
		},
		{
			name:     "non-pdf rejected before any write",
			owner:    "user-a",
			fileName: "notes.txt",
			size:     5,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				return strings.NewReader("hello")
			},
			wantErr: ErrUnsupportedType,
		},
		{
			name:     "blob write failure creates no record",
			owner:    "user-a",
			fileName: "report.pdf",
			size:     5,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("hello")
				mStore.On("Put", ctx, "report.pdf", r, int64(5)).
					Return(errors.New("disk full"))
				return r
			},
			wantErr: ErrStorageUnavailable,
		},
		{
			name:     "invalid blob name passes through",
			owner:    "user-a",
			fileName: "..%2f.pdf",
			size:     5,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("hello")
				mStore.On("Put", ctx, "..%2f.pdf", r, int64(5)).
					Return(storage.ErrInvalidName)
				return r
			},
			wantErr: storage.ErrInvalidName,
		},
		{
			name:     "duplicate filename surfaces as conflict without rollback",
			owner:    "user-b",
			fileName: "report.pdf",
			size:     5,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("hello")
				mStore.On("Put", ctx, "report.pdf", r, int64(5)).Return(nil)
				mRepo.On("Create", ctx, mock.Anything).
					Return(nil, repository.ErrDuplicateFilename)
				return r
			},
			wantErr: ErrDuplicateName,
		},
		{
			name:     "insert failure leaves orphan blob, no rollback",
			owner:    "user-a",
			fileName: "report.pdf",
			size:     5,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				r := strings.NewReader("hello")
				mStore.On("Put", ctx, "report.pdf", r, int64(5)).Return(nil)
				mRepo.On("Create", ctx, mock.Anything).
					Return(nil, errors.New("db down"))
				return r
			},
			wantErrMsg: "save metadata for report.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockBlobStore)
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(mStore, mRepo)

			r := tt.setupMocks(mStore, mRepo)

			doc, err := svc.Upload(ctx, tt.owner, tt.fileName, r, tt.size)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, doc)
			}

			// Upload never deletes blobs: a failed insert tolerates the
			// orphan instead of rolling back.
			mStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		owner      string
		id         int64
		setupMocks func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
	}{
		{
			name:  "happy path",
			owner: "user-a",
			id:    1,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByIDAndOwner", ctx, int64(1), "user-a").
					Return(&model.Document{ID: 1, FileName: "report.pdf", Owner: "user-a"}, nil)
				mStore.On("Exists", ctx, "report.pdf").Return(true, nil)
			},
		},
		{
			name:  "not found",
			owner: "user-a",
			id:    99,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByIDAndOwner", ctx, int64(99), "user-a").
					Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name:  "foreign owner sees not found",
			owner: "user-b",
			id:    1,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByIDAndOwner", ctx, int64(1), "user-b").
					Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name:  "record without blob is inconsistent, not absent",
			owner: "user-a",
			id:    1,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByIDAndOwner", ctx, int64(1), "user-a").
					Return(&model.Document{ID: 1, FileName: "report.pdf", Owner: "user-a"}, nil)
				mStore.On("Exists", ctx, "report.pdf").Return(false, nil)
			},
			wantErr: ErrInconsistent,
		},
		{
			name:  "blob probe failure",
			owner: "user-a",
			id:    1,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByIDAndOwner", ctx, int64(1), "user-a").
					Return(&model.Document{ID: 1, FileName: "report.pdf", Owner: "user-a"}, nil)
				mStore.On("Exists", ctx, "report.pdf").Return(false, errors.New("io error"))
			},
			wantErr: ErrStorageUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockBlobStore)
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(mStore, mRepo)

			tt.setupMocks(mStore, mRepo)

			doc, err := svc.Get(ctx, tt.owner, tt.id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, doc)
				assert.Equal(t, tt.id, doc.ID)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("returns repository result verbatim", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(nil, mRepo)

		docs := []model.Document{
			{ID: 1, FileName: "a.pdf", Owner: "user-a"},
			{ID: 2, FileName: "b.pdf", Owner: "user-a"},
		}
		mRepo.On("ListByOwner", ctx, "user-a").Return(docs, nil)

		got, err := svc.List(ctx, "user-a")
		assert.NoError(t, err)
		assert.Equal(t, docs, got)
		mRepo.AssertExpectations(t)
	})

	t.Run("no documents is an empty slice, not an error", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(nil, mRepo)

		mRepo.On("ListByOwner", ctx, "user-empty").Return([]model.Document{}, nil)

		got, err := svc.List(ctx, "user-empty")
		assert.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("repository error", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(nil, mRepo)

		mRepo.On("ListByOwner", ctx, "user-a").Return(nil, errors.New("db fail"))

		_, err := svc.List(ctx, "user-a")
		assert.Error(t, err)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		owner      string
		id         int64
		setupMocks func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
	}{
		{
			name:  "happy path removes record then blob",
			owner: "user-a",
			id:    1,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByIDAndOwner", ctx, int64(1), "user-a").
					Return(&model.Document{ID: 1, FileName: "report.pdf", Owner: "user-a"}, nil)
				mRepo.On("DeleteByIDAndOwner", ctx, int64(1), "user-a").Return(true, nil)
				mStore.On("Delete", ctx, "report.pdf").Return(nil)
			},
		},
		{
			name:  "absent document is an error, not a silent success",
			owner: "user-a",
			id:    99,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByIDAndOwner", ctx, int64(99), "user-a").
					Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name:  "foreign owner's document is untouchable",
			owner: "user-b",
			id:    1,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByIDAndOwner", ctx, int64(1), "user-b").
					Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name:  "lost race reports not found",
			owner: "user-a",
			id:    1,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByIDAndOwner", ctx, int64(1), "user-a").
					Return(&model.Document{ID: 1, FileName: "report.pdf", Owner: "user-a"}, nil)
				mRepo.On("DeleteByIDAndOwner", ctx, int64(1), "user-a").Return(false, nil)
			},
			wantErr: ErrNotFound,
		},
		{
			name:  "blob removal failure still succeeds",
			owner: "user-a",
			id:    1,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByIDAndOwner", ctx, int64(1), "user-a").
					Return(&model.Document{ID: 1, FileName: "report.pdf", Owner: "user-a"}, nil)
				mRepo.On("DeleteByIDAndOwner", ctx, int64(1), "user-a").Return(true, nil)
				mStore.On("Delete", ctx, "report.pdf").Return(errors.New("io error"))
			},
		},
		{
			name:  "metadata delete failure",
			owner: "user-a",
			id:    1,
			setupMocks: func(mStore *storeMocks.MockBlobStore, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByIDAndOwner", ctx, int64(1), "user-a").
					Return(&model.Document{ID: 1, FileName: "report.pdf", Owner: "user-a"}, nil)
				mRepo.On("DeleteByIDAndOwner", ctx, int64(1), "user-a").
					Return(false, errors.New("db fail"))
			},
			wantErr: errors.New("db fail"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockBlobStore)
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(mStore, mRepo)

			tt.setupMocks(mStore, mRepo)

			err := svc.Delete(ctx, tt.owner, tt.id)

			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, ErrNotFound) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.Error(t, err)
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
			} else {
				assert.NoError(t, err)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

// Deleting twice must return success, then not found.
func TestDocumentService_DeleteNotIdempotent(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockBlobStore)
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewDocumentService(mStore, mRepo)

	mRepo.On("FindByIDAndOwner", ctx, int64(1), "user-a").
		Return(&model.Document{ID: 1, FileName: "report.pdf", Owner: "user-a"}, nil).Once()
	mRepo.On("DeleteByIDAndOwner", ctx, int64(1), "user-a").Return(true, nil).Once()
	mStore.On("Delete", ctx, "report.pdf").Return(nil).Once()

	assert.NoError(t, svc.Delete(ctx, "user-a", 1))

	mRepo.On("FindByIDAndOwner", ctx, int64(1), "user-a").
		Return(nil, sql.ErrNoRows).Once()

	assert.ErrorIs(t, svc.Delete(ctx, "user-a", 1), ErrNotFound)
	mRepo.AssertExpectations(t)
}
