package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestPGGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM documents WHERE id =").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGGetByIDScansNullableColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "title", "owner_id", "storage_key", "mime_type", "size_bytes", "extraction_status",
		"text_key", "text_metadata_key", "text_extracted_at", "extraction_error", "created_at", "updated_at",
	}).AddRow(
		"doc-1", "paper", "user-1", "doc-1/raw.pdf", "application/pdf", int64(1024), StatusProcessing,
		nil, nil, nil, nil, now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM documents WHERE id =").
		WithArgs("doc-1").
		WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.TextKey != "" || doc.TextMetadataKey != "" || doc.TextExtractedAt != nil || doc.ExtractionError != "" {
		t.Fatalf("expected empty extraction fields while processing, got %+v", doc)
	}
	if doc.ExtractionStatus != StatusProcessing {
		t.Fatalf("expected processing, got %s", doc.ExtractionStatus)
	}
}

func TestPGUpdateExtractionResultGuardsOnProcessing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	extractedAt := time.Now().UTC()
	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1/text.txt", "doc-1/text.meta.json", extractedAt, StatusComplete, "doc-1", StatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: db}
	if err := repo.UpdateExtractionResult(context.Background(), "doc-1", "doc-1/text.txt", "doc-1/text.meta.json", extractedAt); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGUpdateExtractionFailureGuardsOnProcessing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE documents").
		WithArgs(StatusFailed, "parse pdf: broken xref", "doc-1", StatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	// Zero rows affected means the document already reached a terminal state;
	// that is not an error.
	if err := repo.UpdateExtractionFailure(context.Background(), "doc-1", "parse pdf: broken xref"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGListUsesLimitAndOffset(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY created_at DESC").
		WithArgs(10, 20).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "owner_id", "storage_key", "mime_type", "size_bytes", "extraction_status",
			"text_key", "text_metadata_key", "text_extracted_at", "extraction_error", "created_at", "updated_at",
		}))

	repo := &PGRepo{DB: db}
	if _, err := repo.List(context.Background(), 10, 20); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
