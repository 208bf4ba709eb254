package annotations

import "time"

// AnnotationResponse is the outward-facing representation of an annotation.
// It is also the payload broadcast on annotation.created/updated events.
type AnnotationResponse struct {
	ID         string        `json:"id"`
	DocumentID string        `json:"documentId"`
	UserID     string        `json:"userId"`
	Selector   Selector      `json:"selector"`
	Quote      QuoteSelector `json:"quoteSelector"`
	Body       string        `json:"body"`
	Orphaned   bool          `json:"orphaned"`
	RangeHash  string        `json:"rangeHash"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// CursorPaginationResponse describes one cursor page.
type CursorPaginationResponse struct {
	Cursor  *string `json:"cursor"`
	HasMore bool    `json:"hasMore"`
}

// ListResponse is the annotation listing payload.
type ListResponse struct {
	Data       []AnnotationResponse     `json:"data"`
	Pagination CursorPaginationResponse `json:"pagination"`
}

func toResponse(a Annotation) AnnotationResponse {
	return AnnotationResponse{
		ID:         a.ID,
		DocumentID: a.DocumentID,
		UserID:     a.UserID,
		Selector:   a.Selector,
		Quote:      a.Quote,
		Body:       a.Body,
		Orphaned:   a.Orphaned,
		RangeHash:  a.RangeHash,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func toListResponse(page Page) ListResponse {
	data := make([]AnnotationResponse, 0, len(page.Items))
	for _, a := range page.Items {
		data = append(data, toResponse(a))
	}
	resp := ListResponse{
		Data:       data,
		Pagination: CursorPaginationResponse{HasMore: page.HasMore},
	}
	if page.HasMore {
		cursor := page.NextCursor
		resp.Pagination.Cursor = &cursor
	}
	return resp
}
