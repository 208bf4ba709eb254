package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID       string     `json:"documentId"`
	Title            string     `json:"title"`
	OwnerID          string     `json:"ownerId"`
	MimeType         string     `json:"mimeType"`
	SizeBytes        int64      `json:"sizeBytes"`
	ExtractionStatus string     `json:"extractionStatus"`
	TextExtractedAt  *time.Time `json:"textExtractedAt,omitempty"`
	ExtractionError  string     `json:"extractionError,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// PaginationResponse describes one page of the document directory.
type PaginationResponse struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ListResponse is the directory listing payload.
type ListResponse struct {
	Data       []DocumentResponse `json:"data"`
	Pagination PaginationResponse `json:"pagination"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:       doc.ID,
		Title:            doc.Title,
		OwnerID:          doc.OwnerID,
		MimeType:         doc.MimeType,
		SizeBytes:        doc.SizeBytes,
		ExtractionStatus: doc.ExtractionStatus,
		TextExtractedAt:  doc.TextExtractedAt,
		ExtractionError:  doc.ExtractionError,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
}

func toListResponse(res ListResult) ListResponse {
	data := make([]DocumentResponse, 0, len(res.Items))
	for _, doc := range res.Items {
		data = append(data, toResponse(doc))
	}
	return ListResponse{
		Data: data,
		Pagination: PaginationResponse{
			Page:  res.Page,
			Limit: res.Limit,
			Total: res.Total,
			Pages: res.Pages,
		},
	}
}
