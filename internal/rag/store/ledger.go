package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/timooo-thy/rag-atron-mllm/internal/model"
)

// Ledger records ingested evidence payloads in MySQL. It is advisory:
// ingestion succeeds even when the ledger write fails.
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates an evidence ledger and migrates its table.
func NewLedger(db *gorm.DB) (*Ledger, error) {
	if err := db.AutoMigrate(&model.EvidenceRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate evidence ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Record appends one evidence row.
func (l *Ledger) Record(ctx context.Context, rec *model.EvidenceRecord) error {
	if err := l.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to record evidence: %w", err)
	}
	return nil
}

// Count returns the total number of ledger rows.
func (l *Ledger) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := l.db.WithContext(ctx).Model(&model.EvidenceRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count evidence: %w", err)
	}
	return n, nil
}

// CountForCase returns the number of ledger rows for one case.
func (l *Ledger) CountForCase(ctx context.Context, caseID int) (int64, error) {
	var n int64
	err := l.db.WithContext(ctx).
		Model(&model.EvidenceRecord{}).
		Where("case_id = ?", caseID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count evidence for case %d: %w", caseID, err)
	}
	return n, nil
}

// RecentForCase returns the latest rows for one case, newest first.
func (l *Ledger) RecentForCase(ctx context.Context, caseID, limit int) ([]model.EvidenceRecord, error) {
	var rows []model.EvidenceRecord
	err := l.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence for case %d: %w", caseID, err)
	}
	return rows, nil
}
