package annotations

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func testAnnotation() Annotation {
	now := time.Now().UTC()
	return Annotation{
		ID:         "a1b2c3",
		DocumentID: "doc-1",
		UserID:     "user-1",
		Selector:   Selector{Start: 10, End: 42},
		Quote:      QuoteSelector{Exact: "highlighted", Prefix: "pre", Suffix: "post"},
		Body:       "a note",
		RangeHash:  "hash-1",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestPGCreateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO annotations").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_annotations_range_hash"})

	repo := &PGRepo{DB: db}
	if err := repo.Create(context.Background(), testAnnotation()); !errors.Is(err, ErrDuplicateRange) {
		t.Fatalf("expected ErrDuplicateRange, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGCreateInsertsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	a := testAnnotation()
	mock.ExpectExec("INSERT INTO annotations").
		WithArgs(
			a.ID, a.DocumentID, a.UserID,
			a.Selector.Start, a.Selector.End,
			a.Quote.Exact, a.Quote.Prefix, a.Quote.Suffix,
			a.Body, a.Orphaned, a.RangeHash,
			a.CreatedAt, a.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: db}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM annotations WHERE id =").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGUpdateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE annotations").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	repo := &PGRepo{DB: db}
	if err := repo.Update(context.Background(), testAnnotation()); !errors.Is(err, ErrDuplicateRange) {
		t.Fatalf("expected ErrDuplicateRange, got %v", err)
	}
}

func TestPGUpdateMissingRowNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE annotations").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	if err := repo.Update(context.Background(), testAnnotation()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGDeleteMissingRowNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("DELETE FROM annotations").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGListByDocumentScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	a := testAnnotation()
	rows := sqlmock.NewRows([]string{
		"id", "document_id", "user_id", "selector_start", "selector_end",
		"quote_exact", "quote_prefix", "quote_suffix", "body", "orphaned", "range_hash",
		"created_at", "updated_at",
	}).AddRow(
		a.ID, a.DocumentID, a.UserID, a.Selector.Start, a.Selector.End,
		a.Quote.Exact, a.Quote.Prefix, a.Quote.Suffix, a.Body, a.Orphaned, a.RangeHash,
		a.CreatedAt, a.UpdatedAt,
	)

	mock.ExpectQuery("SELECT (.+) FROM annotations").
		WithArgs("doc-1", "", 11).
		WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	got, err := repo.ListByDocument(context.Background(), "doc-1", "", 11)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0].ID != a.ID || got[0].Selector.End != 42 {
		t.Fatalf("unexpected row %+v", got[0])
	}
}
