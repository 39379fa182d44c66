package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"docstore/internal/http/middleware"
	"docstore/internal/identity"
	"docstore/internal/service"
	"docstore/internal/storage"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers translate the authenticated identity plus request into document
// service calls; all business rules live in the service.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService, store storage.BlobStore, resolver identity.Resolver) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	auth := middleware.Auth(resolver)

	app.Get("/me", auth, Whoami())

	documents := app.Group("/documents", auth)
	documents.Get("/", ListDocuments(docSvc))
	documents.Post("/upload", UploadDocument(docSvc))
	documents.Get("/:id", DownloadDocument(docSvc, store))
	documents.Delete("/:id", DeleteDocument(docSvc))
}

// HealthCheck reports DB connectivity.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// Whoami returns the identity resolved by the auth middleware.
func Whoami() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid credentials")
		}
		return c.JSON(id)
	}
}

// UploadDocument accepts a multipart upload (field name: file) and stores it
// for the authenticated owner.
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid credentials")
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := docSvc.Upload(c.UserContext(), id.UserID, fh.Filename, f, fh.Size)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"fileName": doc.FileName,
			"message":  "File uploaded successfully",
		})
	}
}

// ListDocuments returns the owner's documents in insertion order.
// An owner with no documents gets 204, not an error.
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid credentials")
		}

		docs, err := docSvc.List(c.UserContext(), id.UserID)
		if err != nil {
			return writeServiceError(c, err)
		}
		if len(docs) == 0 {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.JSON(docs)
	}
}

// DownloadDocument streams the blob with an attachment disposition.
// The metadata lookup and the byte streaming are separate calls: the service
// owns visibility and consistency, the blob store owns content.
func DownloadDocument(docSvc service.DocumentService, store storage.BlobStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid credentials")
		}

		docID, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		doc, err := docSvc.Get(c.UserContext(), id.UserID, docID)
		if err != nil {
			return writeServiceError(c, err)
		}

		rc, err := store.Get(c.UserContext(), doc.FileName)
		if err != nil {
			if errors.Is(err, storage.ErrBlobNotFound) {
				return writeError(c, fiber.StatusNotFound, "BLOB_MISSING", "document content is missing")
			}
			return writeError(c, fiber.StatusInternalServerError, "STORAGE_UNAVAILABLE", "storage unavailable")
		}

		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.FileName))
		return c.SendStream(rc, int(doc.Size))
	}
}

// DeleteDocument removes the owner's document.
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid credentials")
		}

		docID, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		if err := docSvc.Delete(c.UserContext(), id.UserID, docID); err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "File deleted successfully",
		})
	}
}
