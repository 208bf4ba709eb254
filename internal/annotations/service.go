package annotations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"annotate-backend/internal/documents"
	"annotate-backend/internal/shared/auth"
	"annotate-backend/internal/shared/util"
)

// EventPublisher broadcasts an annotation mutation to the document's channel.
// Delivery is best-effort: implementations never fail the caller.
type EventPublisher interface {
	Publish(documentID, event string, payload any)
}

// Realtime event names emitted on annotation mutations.
const (
	EventCreated = "annotation.created"
	EventUpdated = "annotation.updated"
	EventDeleted = "annotation.deleted"
)

// Service contains business logic for annotations.
type Service struct {
	Repo   AnnotationsRepo
	Docs   documents.DocumentsRepo
	Events EventPublisher
}

// CreateInput carries the fields accepted on create.
type CreateInput struct {
	DocumentID string
	Selector   Selector
	Quote      QuoteSelector
	Body       string
	Orphaned   bool
}

// UpdateInput carries the mutable fields; nil means "leave unchanged".
type UpdateInput struct {
	Selector *Selector
	Quote    *QuoteSelector
	Body     *string
	Orphaned *bool
}

// Page is one cursor-paginated slice of a document's annotations.
type Page struct {
	Items      []Annotation
	NextCursor string
	HasMore    bool
}

// Create validates input, verifies the document exists, and inserts the
// annotation. Range uniqueness is decided by the repo's atomic insert.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Annotation, error) {
	if in.DocumentID == "" {
		return Annotation{}, fmt.Errorf("%w: documentId is required", ErrInvalidInput)
	}
	if err := validateSelector(in.Selector); err != nil {
		return Annotation{}, err
	}
	if strings.TrimSpace(in.Quote.Exact) == "" {
		return Annotation{}, fmt.Errorf("%w: quoteSelector.exact is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Body) == "" {
		return Annotation{}, fmt.Errorf("%w: body is required", ErrInvalidInput)
	}

	if _, err := s.Docs.GetByID(ctx, in.DocumentID); err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return Annotation{}, err
		}
		return Annotation{}, fmt.Errorf("verify document: %w", err)
	}

	now := time.Now().UTC()
	a := Annotation{
		ID:         uuid.NewString(),
		DocumentID: in.DocumentID,
		UserID:     userID,
		Selector:   in.Selector,
		Quote:      in.Quote,
		Body:       in.Body,
		Orphaned:   in.Orphaned,
		RangeHash:  util.RangeHash(in.DocumentID, in.Selector.Start, in.Selector.End, userID),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.Repo.Create(ctx, a); err != nil {
		return Annotation{}, err
	}

	s.publish(a.DocumentID, EventCreated, toResponse(a))
	return a, nil
}

// Update applies mutable-field changes. A selector change recomputes the
// range hash and re-enforces uniqueness. Only the author or a user holding
// the elevated role may update.
func (s *Service) Update(ctx context.Context, userID, role, id string, in UpdateInput) (Annotation, error) {
	a, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Annotation{}, err
	}
	if !canEdit(a, userID, role) {
		return Annotation{}, ErrForbidden
	}

	if in.Selector != nil {
		if err := validateSelector(*in.Selector); err != nil {
			return Annotation{}, err
		}
		a.Selector = *in.Selector
		a.RangeHash = util.RangeHash(a.DocumentID, a.Selector.Start, a.Selector.End, a.UserID)
	}
	if in.Quote != nil {
		if strings.TrimSpace(in.Quote.Exact) == "" {
			return Annotation{}, fmt.Errorf("%w: quoteSelector.exact is required", ErrInvalidInput)
		}
		a.Quote = *in.Quote
	}
	if in.Body != nil {
		if strings.TrimSpace(*in.Body) == "" {
			return Annotation{}, fmt.Errorf("%w: body is required", ErrInvalidInput)
		}
		a.Body = *in.Body
	}
	if in.Orphaned != nil {
		a.Orphaned = *in.Orphaned
	}
	a.UpdatedAt = time.Now().UTC()

	if err := s.Repo.Update(ctx, a); err != nil {
		return Annotation{}, err
	}

	s.publish(a.DocumentID, EventUpdated, toResponse(a))
	return a, nil
}

// Delete removes an annotation permanently, with the same authorization rule
// as Update.
func (s *Service) Delete(ctx context.Context, userID, role, id string) error {
	a, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canEdit(a, userID, role) {
		return ErrForbidden
	}

	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(a.DocumentID, EventDeleted, map[string]string{"id": a.ID})
	return nil
}

// ListByDocument returns one cursor page of a document's annotations in
// ascending ID order.
func (s *Service) ListByDocument(ctx context.Context, documentID, cursor string, limit int) (Page, error) {
	if limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if cursor != "" {
		if _, err := uuid.Parse(cursor); err != nil {
			return Page{}, fmt.Errorf("%w: %s", ErrInvalidCursor, cursor)
		}
	}

	if _, err := s.Docs.GetByID(ctx, documentID); err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return Page{}, err
		}
		return Page{}, fmt.Errorf("verify document: %w", err)
	}

	// Fetch one extra record to decide whether another page exists.
	items, err := s.Repo.ListByDocument(ctx, documentID, cursor, limit+1)
	if err != nil {
		return Page{}, err
	}

	page := Page{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.NextCursor = page.Items[len(page.Items)-1].ID
		page.HasMore = true
	}
	return page, nil
}

func canEdit(a Annotation, userID, role string) bool {
	if a.UserID == userID {
		return true
	}
	return auth.IsElevated(role)
}

func validateSelector(sel Selector) error {
	if sel.Start < 0 {
		return fmt.Errorf("%w: selector.start must not be negative", ErrInvalidInput)
	}
	if sel.End <= sel.Start {
		return fmt.Errorf("%w: selector.end must be greater than selector.start", ErrInvalidInput)
	}
	return nil
}

// publish is a best-effort side channel: a fan-out failure must never roll
// back or fail the mutation, so the publisher has no error path at all.
func (s *Service) publish(documentID, event string, payload any) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(documentID, event, payload)
}
