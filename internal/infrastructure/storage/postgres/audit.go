package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"kardex/internal/core/id"
	"kardex/internal/core/tenant"
	"kardex/internal/domain/ledger"
	"kardex/internal/domain/sale"
)

// AuditAction represents the type of audited operation.
type AuditAction string

const (
	AuditActionCreate   AuditAction = "create"
	AuditActionUpdate   AuditAction = "update"
	AuditActionDelete   AuditAction = "delete"
	AuditActionReversal AuditAction = "reversal"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID                id.ID           `db:"id"`
	TenantUserID      int64           `db:"tenant_user_id"`
	BranchID          int64           `db:"branch_id"`
	EntityType        string          `db:"entity_type"`
	EntityID          id.ID           `db:"entity_id"`
	Action            AuditAction     `db:"action"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditService records destructive operations. Sale reversal physically
// deletes ledger rows, so the deleted state is preserved here; large
// payloads are zstd-compressed.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes
}

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024, // 10KB
	}, nil
}

// Log records an audit entry.
func (s *AuditService) Log(ctx context.Context, scope tenant.Scope, entry AuditEntry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.TenantUserID = scope.ActorUserID
	entry.BranchID = scope.BranchID

	// Compress large changes
	entry.CompressionAlgo = CompressionNone
	if len(entry.Changes) > s.compressThreshold {
		entry.ChangesCompressed = s.encoder.EncodeAll(entry.Changes, nil)
		entry.Changes = nil
		entry.CompressionAlgo = CompressionZstd
	}

	sql := `
		INSERT INTO audit_log (
			id, tenant_user_id, branch_id, entity_type, entity_id, action,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql,
		entry.ID, entry.TenantUserID, entry.BranchID,
		entry.EntityType, entry.EntityID, entry.Action,
		entry.Changes, entry.ChangesCompressed, entry.CompressionAlgo,
		entry.CreatedAt,
	)
	return err
}

// reversalRecord is the audit payload for a reversed sale.
type reversalRecord struct {
	Sale             *sale.Sale        `json:"sale"`
	DeletedMovements []ledger.Movement `json:"deletedMovements"`
}

// RecordReversal preserves a reversed sale and its deleted movements.
// Runs inside the reversal transaction, so a failed reversal leaves no
// audit entry behind.
func (s *AuditService) RecordReversal(ctx context.Context, scope tenant.Scope, reversed *sale.Sale, deleted []ledger.Movement) error {
	payload, err := json.Marshal(reversalRecord{
		Sale:             reversed,
		DeletedMovements: deleted,
	})
	if err != nil {
		return fmt.Errorf("marshal reversal record: %w", err)
	}

	return s.Log(ctx, scope, AuditEntry{
		EntityType: "sale",
		EntityID:   reversed.ID,
		Action:     AuditActionReversal,
		Changes:    payload,
	})
}

// EntityHistory retrieves audit history for an entity, newest first.
func (s *AuditService) EntityHistory(ctx context.Context, scope tenant.Scope, entityType string, entityID id.ID, limit int) ([]AuditEntry, error) {
	sql := `
		SELECT id, tenant_user_id, branch_id, entity_type, entity_id, action,
		       changes, changes_compressed, compression_algo, created_at
		FROM audit_log
		WHERE tenant_user_id = ANY($1) AND branch_id = $2
		  AND entity_type = $3 AND entity_id = $4
		ORDER BY created_at DESC
		LIMIT $5
	`

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql,
		scope.UserIDs, scope.BranchID, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		err := rows.Scan(
			&e.ID, &e.TenantUserID, &e.BranchID, &e.EntityType, &e.EntityID,
			&e.Action, &e.Changes, &e.ChangesCompressed, &e.CompressionAlgo,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		// Decompress if needed
		if e.CompressionAlgo == CompressionZstd && len(e.ChangesCompressed) > 0 {
			decompressed, err := s.decoder.DecodeAll(e.ChangesCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress changes: %w", err)
			}
			e.Changes = decompressed
			e.ChangesCompressed = nil
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

var _ sale.ReversalAuditor = (*AuditService)(nil)
