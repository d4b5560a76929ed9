package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/klauspost/compress/zstd"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/apperror"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/core/id"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/delivery"
)

// CompressionAlgo specifies how an artifact is stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// ArtifactArchive stores rendered PDFs, zstd-compressed above a size
// threshold. One artifact per document; re-sending overwrites it.
type ArtifactArchive struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewArtifactArchive creates the archive.
func NewArtifactArchive(txManager *TxManager) (*ArtifactArchive, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &ArtifactArchive{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024, // 10KB
	}, nil
}

// Save implements delivery.ArtifactStore.
func (a *ArtifactArchive) Save(ctx context.Context, ownerID string, docID id.ID, content []byte) error {
	algo := CompressionNone
	stored := content
	if len(content) > a.compressThreshold {
		stored = a.encoder.EncodeAll(content, nil)
		algo = CompressionZstd
	}

	sql := `
		INSERT INTO doc_artifacts (document_id, owner_id, content, compression_algo, original_size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (document_id) DO UPDATE
		SET content = EXCLUDED.content,
		    compression_algo = EXCLUDED.compression_algo,
		    original_size = EXCLUDED.original_size,
		    created_at = EXCLUDED.created_at
	`

	querier := a.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		docID, ownerID, stored, string(algo), len(content), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	return nil
}

// Load implements delivery.ArtifactStore.
func (a *ArtifactArchive) Load(ctx context.Context, ownerID string, docID id.ID) ([]byte, error) {
	sql := `
		SELECT content, compression_algo
		FROM doc_artifacts
		WHERE document_id = $1 AND owner_id = $2
	`

	var content []byte
	var algo string
	querier := a.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, docID, ownerID).Scan(&content, &algo); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("artifact", docID.String())
		}
		return nil, fmt.Errorf("load artifact: %w", err)
	}

	if CompressionAlgo(algo) == CompressionZstd {
		decompressed, err := a.decoder.DecodeAll(content, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress artifact: %w", err)
		}
		return decompressed, nil
	}
	return content, nil
}

var _ delivery.ArtifactStore = (*ArtifactArchive)(nil)
