package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PatternHash tracks the series hash of every record seen by an ingest run
type PatternHash struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RunID      uuid.UUID `gorm:"type:uuid;not null;index:idx_pattern_run_hash" json:"run_id"`
	Hash       string    `gorm:"type:varchar(64);not null;index:idx_pattern_run_hash;index:idx_pattern_hash" json:"hash"`
	RecordID   uuid.UUID `gorm:"type:uuid;not null" json:"record_id"`
	SourceFile string    `gorm:"type:text" json:"source_file"`
	Kept       bool      `gorm:"default:true;index:idx_pattern_kept" json:"kept"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (PatternHash) TableName() string {
	return "pattern_hashes"
}

// BeforeCreate GORM hook
func (p *PatternHash) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
