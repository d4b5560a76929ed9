package delivery

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/id"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/document"
)

type memoryArtifacts struct {
	mu    sync.Mutex
	saved map[id.ID][]byte

	SaveErr error
}

func newMemoryArtifacts() *memoryArtifacts {
	return &memoryArtifacts{saved: make(map[id.ID][]byte)}
}

func (m *memoryArtifacts) Save(_ context.Context, _ string, docID id.ID, content []byte) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[docID] = content
	return nil
}

func (m *memoryArtifacts) Load(_ context.Context, _ string, docID id.ID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.saved[docID]
	if !ok {
		return nil, apperror.NewNotFound("artifact", docID)
	}
	return content, nil
}

func storedRecord(t *testing.T, repo *document.MemoryRepository) *document.Record {
	t.Helper()
	rec := deliverableRecord(t)
	require.NoError(t, repo.Create(context.Background(), rec))
	return rec
}

func newSendService(repo *document.MemoryRepository, transport Transport, artifacts ArtifactStore) *Service {
	o := NewOrchestrator(&stubRenderer{data: []byte("%PDF-fake")}, nil, transport, Config{})
	return NewService(repo, o, artifacts)
}

func TestSend_DraftBecomesSent(t *testing.T) {
	repo := document.NewMemoryRepository()
	rec := storedRecord(t, repo)
	transport := &MockTransport{}
	artifacts := newMemoryArtifacts()
	svc := newSendService(repo, transport, artifacts)

	res, err := svc.Send(context.Background(), "owner-1", rec.ID, Options{})
	require.NoError(t, err)
	require.True(t, res.Success)

	stored, err := repo.GetByID(context.Background(), "owner-1", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusSent, stored.Status)

	saved, err := artifacts.Load(context.Background(), "owner-1", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-fake"), saved)
}

func TestSend_FailedDeliveryKeepsDraft(t *testing.T) {
	repo := document.NewMemoryRepository()
	rec := storedRecord(t, repo)
	transport := &MockTransport{Err: errors.New("connection refused")}
	svc := newSendService(repo, transport, nil)

	res, err := svc.Send(context.Background(), "owner-1", rec.ID, Options{})
	require.NoError(t, err)
	require.False(t, res.Success)
	assert.Equal(t, StageTransmitting, res.FailedAt)

	stored, err := repo.GetByID(context.Background(), "owner-1", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusDraft, stored.Status)
}

func TestSend_ResendDoesNotTransition(t *testing.T) {
	repo := document.NewMemoryRepository()
	rec := storedRecord(t, repo)
	transport := &MockTransport{}
	svc := newSendService(repo, transport, nil)

	_, err := svc.Send(context.Background(), "owner-1", rec.ID, Options{})
	require.NoError(t, err)

	res, err := svc.Send(context.Background(), "owner-1", rec.ID, Options{})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Len(t, transport.Sent, 2)

	stored, err := repo.GetByID(context.Background(), "owner-1", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusSent, stored.Status)
}

func TestSend_RefusesVoidDocument(t *testing.T) {
	repo := document.NewMemoryRepository()
	rec := deliverableRecord(t)
	rec.Status = document.StatusVoid
	require.NoError(t, repo.Create(context.Background(), rec))
	transport := &MockTransport{}
	svc := newSendService(repo, transport, nil)

	_, err := svc.Send(context.Background(), "owner-1", rec.ID, Options{})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
	assert.Empty(t, transport.Sent)
}

func TestSend_UnknownDocument(t *testing.T) {
	repo := document.NewMemoryRepository()
	svc := newSendService(repo, &MockTransport{}, nil)

	_, err := svc.Send(context.Background(), "owner-1", id.New(), Options{})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestSend_ArchiveFailureIsNotFatal(t *testing.T) {
	repo := document.NewMemoryRepository()
	rec := storedRecord(t, repo)
	artifacts := newMemoryArtifacts()
	artifacts.SaveErr = errors.New("disk full")
	svc := newSendService(repo, &MockTransport{}, artifacts)

	res, err := svc.Send(context.Background(), "owner-1", rec.ID, Options{})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestArtifact_OwnerScoped(t *testing.T) {
	repo := document.NewMemoryRepository()
	rec := storedRecord(t, repo)
	artifacts := newMemoryArtifacts()
	svc := newSendService(repo, &MockTransport{}, artifacts)

	_, err := svc.Send(context.Background(), "owner-1", rec.ID, Options{})
	require.NoError(t, err)

	content, err := svc.Artifact(context.Background(), "owner-1", rec.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, content)

	_, err = svc.Artifact(context.Background(), "owner-2", rec.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
