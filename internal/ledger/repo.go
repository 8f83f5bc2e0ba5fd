package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/juanestebanprog/finanzas-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository manages persistence of the whole ledger document, one row per
// user key.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Load(ctx context.Context, userKey string) (*Ledger, error)
	Save(ctx context.Context, userKey string, doc *Ledger) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Load returns the stored document, or an empty ledger when none exists.
func (r *repository) Load(ctx context.Context, userKey string) (*Ledger, error) {
	var row models.LedgerDocument
	err := r.db.WithContext(ctx).
		Where("storage_key = ?", userKey).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Empty(), nil
		}
		return nil, err
	}

	var doc Ledger
	if err := json.Unmarshal(row.Content, &doc); err != nil {
		return nil, fmt.Errorf("decoding ledger document %q: %w", userKey, err)
	}
	doc.Normalize()
	return &doc, nil
}

// Save upserts the full document under the user key.
func (r *repository) Save(ctx context.Context, userKey string, doc *Ledger) error {
	if doc == nil {
		return fmt.Errorf("ledger document is required")
	}
	content, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding ledger document %q: %w", userKey, err)
	}

	row := models.LedgerDocument{
		StorageKey: userKey,
		Content:    content,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "storage_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
		}).
		Create(&row).Error
}
