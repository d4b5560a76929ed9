package document

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/id"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[id.ID]*Record

	// CreateErr and UpdateErr force failures when set.
	CreateErr error
	UpdateErr error
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[id.ID]*Record)}
}

func cloneRecord(rec *Record) *Record {
	c := *rec
	c.Items = append([]LineItem(nil), rec.Items...)
	return &c
}

// Create implements Repository.
func (m *MemoryRepository) Create(_ context.Context, rec *Record) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.ID]; ok {
		return apperror.NewConflict("document already exists")
	}
	m.records[rec.ID] = cloneRecord(rec)
	return nil
}

// GetByID implements Repository.
func (m *MemoryRepository) GetByID(_ context.Context, ownerID string, docID id.ID) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[docID]
	if !ok || rec.OwnerID != ownerID || rec.DeletionMark {
		return nil, apperror.NewNotFound("document", docID)
	}
	return cloneRecord(rec), nil
}

// Update implements Repository.
func (m *MemoryRepository) Update(_ context.Context, rec *Record) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.records[rec.ID]
	if !ok || stored.OwnerID != rec.OwnerID {
		return apperror.NewNotFound("document", rec.ID)
	}
	if stored.Version != rec.Version {
		return apperror.NewConcurrentModification("document", rec.ID)
	}
	next := cloneRecord(rec)
	next.Version = stored.Version + 1
	m.records[rec.ID] = next
	rec.Version = next.Version
	return nil
}

// Delete implements Repository.
func (m *MemoryRepository) Delete(_ context.Context, ownerID string, docID id.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[docID]
	if !ok || rec.OwnerID != ownerID || rec.DeletionMark {
		return apperror.NewNotFound("document", docID)
	}
	rec.MarkDeleted()
	return nil
}

// List implements Repository.
func (m *MemoryRepository) List(_ context.Context, ownerID string, filter ListFilter) (ListResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*Record
	for _, rec := range m.records {
		if rec.OwnerID != ownerID {
			continue
		}
		if rec.DeletionMark && !filter.IncludeDeleted {
			continue
		}
		if filter.Type != "" && rec.Type != filter.Type {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(rec.Number), needle) &&
				!strings.Contains(strings.ToLower(rec.CounterpartyName), needle) {
				continue
			}
		}
		matched = append(matched, cloneRecord(rec))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Number < matched[j].Number
	})

	total := int64(len(matched))
	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}

	return ListResult{
		Items:      matched[start:end],
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// NumberExists implements Repository.
func (m *MemoryRepository) NumberExists(_ context.Context, ownerID string, docType Type, number string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.records {
		if rec.OwnerID == ownerID && rec.Type == docType && rec.Number == number {
			return true, nil
		}
	}
	return false, nil
}

var _ Repository = (*MemoryRepository)(nil)
