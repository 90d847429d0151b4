package model

import (
	"time"
)

// Evidence kinds recorded in the ledger.
const (
	EvidenceKindText  = "text"
	EvidenceKindImage = "image"
)

// EvidenceRecord is one row per ingested evidence payload. It is a
// ledger only: re-ingesting the same payload creates a new row (and
// duplicate vectors), mirroring the no-dedup ingestion policy.
type EvidenceRecord struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	CaseID     int       `json:"case_id" gorm:"index;not null"`
	Kind       string    `json:"kind" gorm:"type:varchar(16);not null"`
	ObjectKey  string    `json:"object_key" gorm:"type:varchar(255)"`
	SourceURL  string    `json:"source_url" gorm:"type:varchar(2048)"`
	ChunkCount int       `json:"chunk_count" gorm:"default:0"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for EvidenceRecord.
func (EvidenceRecord) TableName() string {
	return "evidence_records"
}
