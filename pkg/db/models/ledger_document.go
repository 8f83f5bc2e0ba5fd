package models

import (
	"encoding/json"
	"time"
)

// LedgerDocument holds one user's entire serialized ledger. The document is
// read and written whole; there is no row-per-movement schema.
type LedgerDocument struct {
	StorageKey string          `gorm:"column:storage_key;primaryKey"`
	Content    json.RawMessage `gorm:"column:content;not null"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table name used by the goose migrations.
func (LedgerDocument) TableName() string {
	return "ledger_documents"
}
