package annotations

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of AnnotationsRepo. The single
// mutex makes insert-or-reject on the range-hash index atomic, mirroring the
// unique-index arbitration of the Postgres repo.
type MemoryRepo struct {
	mu      sync.RWMutex
	data    map[string]Annotation // id -> annotation
	byRange map[string]string     // rangeHash -> id
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data:    make(map[string]Annotation),
		byRange: make(map[string]string),
	}
}

// Create stores a new annotation, rejecting duplicate range hashes.
func (r *MemoryRepo) Create(ctx context.Context, a Annotation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byRange[a.RangeHash]; exists {
		return ErrDuplicateRange
	}
	r.data[a.ID] = a
	r.byRange[a.RangeHash] = a.ID
	return nil
}

// GetByID returns an annotation by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Annotation, error) {
	if err := ctx.Err(); err != nil {
		return Annotation{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.data[id]
	if !ok {
		return Annotation{}, ErrNotFound
	}
	return a, nil
}

// Update replaces an annotation, re-checking range-hash uniqueness when the
// hash changed.
func (r *MemoryRepo) Update(ctx context.Context, a Annotation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.data[a.ID]
	if !ok {
		return ErrNotFound
	}
	if owner, exists := r.byRange[a.RangeHash]; exists && owner != a.ID {
		return ErrDuplicateRange
	}
	if current.RangeHash != a.RangeHash {
		delete(r.byRange, current.RangeHash)
		r.byRange[a.RangeHash] = a.ID
	}
	r.data[a.ID] = a
	return nil
}

// Delete removes an annotation permanently.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	delete(r.byRange, a.RangeHash)
	return nil
}

// ListByDocument returns annotations for a document ordered by ID ascending,
// starting strictly after afterID.
func (r *MemoryRepo) ListByDocument(ctx context.Context, documentID, afterID string, limit int) ([]Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []Annotation{}, nil
	}

	r.mu.RLock()
	matched := make([]Annotation, 0)
	for _, a := range r.data {
		if a.DocumentID != documentID {
			continue
		}
		if afterID != "" && a.ID <= afterID {
			continue
		}
		matched = append(matched, a)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

var _ AnnotationsRepo = (*MemoryRepo)(nil)
