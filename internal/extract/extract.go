package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const mimePDF = "application/pdf"

// Metadata describes the extracted text of a document. It is persisted next
// to the text blob as JSON.
type Metadata struct {
	Pages         int    `json:"pages"`
	Characters    int    `json:"characters"`
	ExtractedWith string `json:"extractedWith"`
}

// Result carries extracted text and its metadata.
type Result struct {
	Text     string
	Metadata Metadata
}

// ErrUnsupportedMime indicates the payload is not a PDF.
var ErrUnsupportedMime = errors.New("unsupported mime type")

// FromBytes extracts text and metadata from an in-memory PDF payload.
// Library: github.com/ledongthuc/pdf.
func FromBytes(ctx context.Context, data []byte, mimeType string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if normalizeMimeType(mimeType) != mimePDF {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedMime, mimeType)
	}

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("parse pdf: %w", err)
	}

	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return Result{}, fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return Result{}, fmt.Errorf("read pdf text: %w", err)
	}

	text := buf.String()
	return Result{
		Text: text,
		Metadata: Metadata{
			Pages:         pdfReader.NumPage(),
			Characters:    utf8.RuneCountInString(text),
			ExtractedWith: "ledongthuc/pdf",
		},
	}, nil
}

func normalizeMimeType(mimeType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
}
