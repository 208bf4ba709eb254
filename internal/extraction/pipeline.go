package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"annotate-backend/internal/documents"
	"annotate-backend/internal/extract"
	"annotate-backend/internal/shared/metrics"
	"annotate-backend/internal/shared/storage/object"
	"annotate-backend/internal/shared/telemetry"
)

// ErrAlreadyRunning indicates an extraction job for the document is still in
// flight; a second job must not start until it reaches a terminal state.
var ErrAlreadyRunning = errors.New("extraction already in flight for document")

// ErrShuttingDown indicates the pipeline no longer accepts jobs.
var ErrShuttingDown = errors.New("extraction pipeline is shutting down")

const defaultQueueDepth = 64

type job struct {
	documentID string
	storageKey string
	mimeType   string
}

// Pipeline runs document text extraction on a fixed pool of workers. Each
// job reads the raw blob, extracts text and metadata, persists both, and
// moves the document to exactly one terminal state. There is no retry; a
// failure is recorded on the document and surfaced through its status.
type Pipeline struct {
	store   object.ObjectStore
	docs    documents.DocumentsRepo
	workers int

	extractFn func(ctx context.Context, data []byte, mimeType string) (extract.Result, error)

	jobs chan job
	wg   sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]struct{}
	closed   bool
}

// NewPipeline constructs a Pipeline; call Start before enqueueing.
func NewPipeline(store object.ObjectStore, docs documents.DocumentsRepo, workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		store:     store,
		docs:      docs,
		workers:   workers,
		extractFn: extract.FromBytes,
		jobs:      make(chan job, defaultQueueDepth),
		inflight:  make(map[string]struct{}),
	}
}

// Start launches the worker pool.
func (p *Pipeline) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				p.run(j)
			}
		}()
	}
}

// Shutdown stops accepting jobs and waits for in-flight ones, honoring the
// context deadline.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue dispatches an extraction job for the document. It refuses a second
// job while one is still in flight and never blocks the accepting call.
// The mutex is held across the channel send: Shutdown closes the channel
// under the same mutex, so a racing enqueue can never hit a closed channel.
func (p *Pipeline) Enqueue(doc documents.Document) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrShuttingDown
	}
	if _, running := p.inflight[doc.ID]; running {
		metrics.IncExtractionRejected()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, doc.ID)
	}

	j := job{documentID: doc.ID, storageKey: doc.StorageKey, mimeType: doc.MimeType}
	select {
	case p.jobs <- j:
		p.inflight[doc.ID] = struct{}{}
		return nil
	default:
		return fmt.Errorf("extraction queue full for document %s", doc.ID)
	}
}

func (p *Pipeline) release(documentID string) {
	p.mu.Lock()
	delete(p.inflight, documentID)
	p.mu.Unlock()
}

// run drives one job to a terminal state. Panics are recovered and recorded
// as failures so a document can never be left stuck in processing.
func (p *Pipeline) run(j job) {
	ctx := context.Background()
	start := time.Now()
	metrics.IncExtractionStarted()

	defer p.release(j.documentID)
	defer func() {
		if rec := recover(); rec != nil {
			p.fail(ctx, j.documentID, fmt.Sprintf("extraction panic: %v", rec))
		}
		metrics.ObserveExtractionDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	textKey, metaKey, err := p.extract(ctx, j)
	if err != nil {
		p.fail(ctx, j.documentID, err.Error())
		return
	}

	if err := p.docs.UpdateExtractionResult(ctx, j.documentID, textKey, metaKey, time.Now().UTC()); err != nil {
		telemetry.Error("extraction.record_result", map[string]any{
			"document_id": j.documentID,
			"err":         err.Error(),
		})
		// The document must still reach a terminal state if the store is
		// reachable at all.
		p.fail(ctx, j.documentID, fmt.Sprintf("record extraction result: %v", err))
		return
	}

	metrics.IncExtractionCompleted()
	telemetry.Info("extraction.complete", map[string]any{
		"document_id": j.documentID,
		"text_key":    textKey,
		"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
	})
}

func (p *Pipeline) extract(ctx context.Context, j job) (textKey, metaKey string, err error) {
	rc, err := p.store.Open(ctx, j.storageKey)
	if err != nil {
		return "", "", fmt.Errorf("open raw blob: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", "", fmt.Errorf("read raw blob: %w", err)
	}

	res, err := p.extractFn(ctx, raw, j.mimeType)
	if err != nil {
		return "", "", err
	}

	textKey = path.Join(j.documentID, "text.txt")
	if _, err := p.store.SaveWithKey(ctx, textKey, "text/plain; charset=utf-8", strings.NewReader(res.Text)); err != nil {
		return "", "", fmt.Errorf("save extracted text: %w", err)
	}

	metaJSON, err := json.Marshal(res.Metadata)
	if err != nil {
		return "", "", fmt.Errorf("encode metadata: %w", err)
	}
	metaKey = path.Join(j.documentID, "text.meta.json")
	if _, err := p.store.SaveWithKey(ctx, metaKey, "application/json", bytes.NewReader(metaJSON)); err != nil {
		return "", "", fmt.Errorf("save metadata: %w", err)
	}

	return textKey, metaKey, nil
}

// fail records the failed terminal state. It never propagates: extraction
// failures are document state, not process errors.
func (p *Pipeline) fail(ctx context.Context, documentID, message string) {
	metrics.IncExtractionFailed()
	telemetry.Error("extraction.failed", map[string]any{
		"document_id": documentID,
		"err":         message,
	})
	if err := p.docs.UpdateExtractionFailure(ctx, documentID, message); err != nil {
		telemetry.Error("extraction.record_failure", map[string]any{
			"document_id": documentID,
			"err":         err.Error(),
		})
	}
}

var _ documents.Enqueuer = (*Pipeline)(nil)
