package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"annotate-backend/internal/shared/storage/object"
	"annotate-backend/internal/shared/telemetry"
)

const mimePDF = "application/pdf"

// Enqueuer dispatches a background extraction job for a freshly created
// document. Implemented by the extraction pipeline.
type Enqueuer interface {
	Enqueue(doc Document) error
}

// Service contains business logic for documents.
type Service struct {
	Store    object.ObjectStore
	Repo     DocumentsRepo
	Pipeline Enqueuer
}

// ListResult carries one page of the document directory.
type ListResult struct {
	Items []Document
	Page  int
	Limit int
	Total int
	Pages int
}

// Upload stores the raw PDF, records the document in the processing state,
// and enqueues extraction. It returns before extraction runs; callers should
// treat the result as accepted-for-processing.
func (s *Service) Upload(ctx context.Context, ownerID, title, fileName string, r io.Reader) (Document, error) {
	if fileName == "" {
		return Document{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}

	// Sniff before writing anything so non-PDF uploads leave no blob behind.
	var sniff [512]byte
	n, readErr := io.ReadFull(r, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return Document{}, fmt.Errorf("read upload: %w", readErr)
	}
	if mime := http.DetectContentType(sniff[:n]); mime != mimePDF {
		return Document{}, fmt.Errorf("%w: only PDF files are supported", ErrInvalidInput)
	}

	docID := uuid.NewString()
	body := io.MultiReader(bytes.NewReader(sniff[:n]), r)

	storageKey, size, mimeType, err := s.Store.Save(ctx, docID, fileName, body)
	if err != nil {
		return Document{}, fmt.Errorf("save upload: %w", err)
	}

	if strings.TrimSpace(title) == "" {
		title = fileName
	}

	now := time.Now().UTC()
	doc := Document{
		ID:               docID,
		Title:            title,
		OwnerID:          ownerID,
		StorageKey:       storageKey,
		MimeType:         mimeType,
		SizeBytes:        size,
		ExtractionStatus: StatusProcessing,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	if err := s.Pipeline.Enqueue(doc); err != nil {
		// The document must not stay in processing with no job behind it.
		if updateErr := s.Repo.UpdateExtractionFailure(ctx, doc.ID, err.Error()); updateErr != nil {
			telemetry.Error("documents.enqueue_failure_record", map[string]any{
				"document_id": doc.ID,
				"err":         updateErr.Error(),
			})
		}
		doc.ExtractionStatus = StatusFailed
		doc.ExtractionError = err.Error()
	}

	return doc, nil
}

// Get returns a document by ID.
func (s *Service) Get(ctx context.Context, documentID string) (Document, error) {
	if documentID == "" {
		return Document{}, fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, documentID)
}

// List returns one page of the directory, newest first.
func (s *Service) List(ctx context.Context, page, limit int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	items, err := s.Repo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return ListResult{}, err
	}
	total, err := s.Repo.Count(ctx)
	if err != nil {
		return ListResult{}, err
	}

	pages := 0
	if total > 0 {
		pages = (total + limit - 1) / limit
	}

	return ListResult{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
	}, nil
}

// Text opens the extracted text blob for a document. The reader is nil while
// extraction has not completed; the caller inspects the document's status.
func (s *Service) Text(ctx context.Context, documentID string) (Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return Document{}, nil, err
	}
	if doc.TextKey == "" {
		return doc, nil, nil
	}
	rc, err := s.Store.Open(ctx, doc.TextKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return doc, nil, fmt.Errorf("extracted text missing for document %s: %w", doc.ID, err)
		}
		return doc, nil, err
	}
	return doc, rc, nil
}

// TextMetadata reads the extraction metadata blob for a document. The bytes
// are nil while extraction has not completed.
func (s *Service) TextMetadata(ctx context.Context, documentID string) (Document, []byte, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return Document{}, nil, err
	}
	if doc.TextMetadataKey == "" {
		return doc, nil, nil
	}
	rc, err := s.Store.Open(ctx, doc.TextMetadataKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return doc, nil, fmt.Errorf("extraction metadata missing for document %s: %w", doc.ID, err)
		}
		return doc, nil, err
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return doc, nil, err
	}
	return doc, raw, nil
}
