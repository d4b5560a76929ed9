package delivery

import (
	"context"
	"fmt"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/id"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/document"
	"github.com/SaqibDoullah/invoice-flow-sub002/pkg/logger"
)

// ArtifactStore archives rendered documents.
type ArtifactStore interface {
	Save(ctx context.Context, ownerID string, docID id.ID, content []byte) error
	Load(ctx context.Context, ownerID string, docID id.ID) ([]byte, error)
}

// Service coordinates sending a document: it runs the delivery pipeline,
// advances the document lifecycle and archives the rendered artifact.
type Service struct {
	docs         document.Repository
	orchestrator *Orchestrator
	artifacts    ArtifactStore
}

// NewService creates a delivery service. The artifact store may be nil,
// in which case rendered documents are not archived.
func NewService(docs document.Repository, orchestrator *Orchestrator, artifacts ArtifactStore) *Service {
	return &Service{docs: docs, orchestrator: orchestrator, artifacts: artifacts}
}

// Send delivers the document by email.
//
// Drafts move to sent on success; already-sent documents can be re-sent
// without a state change. Void and expired documents are refused. The
// outcome of the pipeline itself is reported in the Result; the error
// return covers lookup and persistence problems around it.
func (s *Service) Send(ctx context.Context, ownerID string, docID id.ID, opts Options) (Result, error) {
	rec, err := s.docs.GetByID(ctx, ownerID, docID)
	if err != nil {
		return Result{}, err
	}

	if !rec.Deliverable() {
		return Result{}, apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"document can no longer be delivered",
		).WithDetail("status", string(rec.Status))
	}

	res := s.orchestrator.Deliver(ctx, rec, opts)
	if !res.Success {
		return res, nil
	}

	if rec.Status == document.StatusDraft {
		if err := rec.Transition(document.StatusSent); err != nil {
			return res, err
		}
		if err := s.docs.Update(ctx, rec); err != nil {
			return res, fmt.Errorf("persist status after delivery: %w", err)
		}
	}

	if s.artifacts != nil && len(res.Artifact) > 0 {
		// Archiving is best effort; the mail already went out.
		if err := s.artifacts.Save(ctx, ownerID, docID, res.Artifact); err != nil {
			logger.Warn(ctx, "artifact archive failed",
				"document_id", docID, "error", err)
		}
	}

	return res, nil
}

// Artifact returns the archived PDF for a document.
func (s *Service) Artifact(ctx context.Context, ownerID string, docID id.ID) ([]byte, error) {
	if s.artifacts == nil {
		return nil, apperror.NewNotFound("artifact", docID)
	}
	// Ownership check runs through the document lookup.
	if _, err := s.docs.GetByID(ctx, ownerID, docID); err != nil {
		return nil, err
	}
	return s.artifacts.Load(ctx, ownerID, docID)
}
