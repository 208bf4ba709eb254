package annotations_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"annotate-backend/internal/bootstrap"
	"annotate-backend/internal/documents"
	"annotate-backend/internal/shared/auth"
	"annotate-backend/internal/shared/config"
)

type annotationBody struct {
	ID         string `json:"id"`
	DocumentID string `json:"documentId"`
	UserID     string `json:"userId"`
	Selector   struct {
		Start int `json:"start"`
		End   int `json:"end"`
	} `json:"selector"`
	Body      string `json:"body"`
	RangeHash string `json:"rangeHash"`
}

func buildTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "dev")

	app, err := bootstrap.Build(config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
		ExtractWorkers:  1,
	})
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Shutdown(ctx)
	})

	// Seed a document directly; the annotation routes only need it to exist.
	if err := app.DocumentsRepo.Create(context.Background(), documents.Document{
		ID:               "doc-1",
		Title:            "seeded",
		OwnerID:          "user-1",
		ExtractionStatus: documents.StatusComplete,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed document: %v", err)
	}
	return app
}

func doJSON(t *testing.T, app *bootstrap.App, method, path, sub, role string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	token, err := auth.SignJWT(auth.Claims{Sub: sub, Role: role})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	return resp
}

func createAnnotation(t *testing.T, app *bootstrap.App, sub string, start, end int) annotationBody {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/v1/annotations", sub, "", map[string]any{
		"documentId":    "doc-1",
		"selector":      map[string]int{"start": start, "end": end},
		"quoteSelector": map[string]string{"exact": "quoted text"},
		"body":          "a note",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		Annotation annotationBody `json:"annotation"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return created.Annotation
}

func TestCreateUpdateDeleteFlow(t *testing.T) {
	app := buildTestApp(t)

	a := createAnnotation(t, app, "user-1", 10, 42)
	if a.UserID != "user-1" || a.RangeHash == "" {
		t.Fatalf("unexpected annotation %+v", a)
	}

	// Duplicate range by the same author conflicts.
	resp := doJSON(t, app, http.MethodPost, "/api/v1/annotations", "user-1", "", map[string]any{
		"documentId":    "doc-1",
		"selector":      map[string]int{"start": 10, "end": 42},
		"quoteSelector": map[string]string{"exact": "quoted text"},
		"body":          "another note",
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", resp.Code, resp.Body.String())
	}

	// A stranger may not edit.
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/annotations/"+a.ID, "user-2", "", map[string]any{
		"body": "hijacked",
	})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}

	// The elevated role may.
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/annotations/"+a.ID, "user-2", auth.RoleOwner, map[string]any{
		"body": "moderated",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var updated struct {
		Annotation annotationBody `json:"annotation"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode update response: %v", err)
	}
	if updated.Annotation.Body != "moderated" {
		t.Fatalf("expected body moderated, got %s", updated.Annotation.Body)
	}
	if updated.Annotation.RangeHash != a.RangeHash {
		t.Fatalf("body edit must not change range hash")
	}

	resp = doJSON(t, app, http.MethodDelete, "/api/v1/annotations/"+a.ID, "user-1", "", nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	resp = doJSON(t, app, http.MethodDelete, "/api/v1/annotations/"+a.ID, "user-1", "", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}

func TestCreateRejectsInvalidSelector(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/annotations", "user-1", "", map[string]any{
		"documentId":    "doc-1",
		"selector":      map[string]int{"start": 42, "end": 10},
		"quoteSelector": map[string]string{"exact": "quoted text"},
		"body":          "a note",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCreateForUnknownDocumentReturns404(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/annotations", "user-1", "", map[string]any{
		"documentId":    "doc-404",
		"selector":      map[string]int{"start": 1, "end": 2},
		"quoteSelector": map[string]string{"exact": "quoted text"},
		"body":          "a note",
	})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestListAnnotationsPaginatesWithCursor(t *testing.T) {
	app := buildTestApp(t)

	for i := 0; i < 12; i++ {
		createAnnotation(t, app, "user-1", i*10, i*10+5)
	}

	resp := doJSON(t, app, http.MethodGet, "/api/v1/documents/doc-1/annotations?limit=10", "user-1", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var first struct {
		Data       []annotationBody `json:"data"`
		Pagination struct {
			Cursor  *string `json:"cursor"`
			HasMore bool    `json:"hasMore"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&first); err != nil {
		t.Fatalf("decode first page: %v", err)
	}
	if len(first.Data) != 10 || !first.Pagination.HasMore || first.Pagination.Cursor == nil {
		t.Fatalf("unexpected first page: %d items, hasMore=%v", len(first.Data), first.Pagination.HasMore)
	}

	path := fmt.Sprintf("/api/v1/documents/doc-1/annotations?limit=10&cursor=%s", *first.Pagination.Cursor)
	resp = doJSON(t, app, http.MethodGet, path, "user-1", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var second struct {
		Data       []annotationBody `json:"data"`
		Pagination struct {
			Cursor  *string `json:"cursor"`
			HasMore bool    `json:"hasMore"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&second); err != nil {
		t.Fatalf("decode second page: %v", err)
	}
	if len(second.Data) != 2 || second.Pagination.HasMore {
		t.Fatalf("unexpected second page: %d items, hasMore=%v", len(second.Data), second.Pagination.HasMore)
	}
}

func TestListRejectsMalformedCursor(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/documents/doc-1/annotations?cursor=nope", "user-1", "", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed cursor, got %d", resp.Code)
	}
}
