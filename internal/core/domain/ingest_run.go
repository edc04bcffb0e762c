package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IngestRun records one directory build and its aggregate counts
type IngestRun struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Directory     string          `gorm:"type:text;not null" json:"directory"`
	Status        string          `gorm:"type:varchar(50);not null;default:'completed'" json:"status"`
	TotalFiles    int             `gorm:"default:0" json:"total_files"`
	ParsedFiles   int             `gorm:"default:0" json:"parsed_files"`
	TotalRecords  int             `gorm:"default:0" json:"total_records"`
	CriticalCount int             `gorm:"default:0" json:"critical_count"`
	ErrorCount    int             `gorm:"default:0" json:"error_count"`
	WarningCount  int             `gorm:"default:0" json:"warning_count"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	Failures      []IngestFailure `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"failures,omitempty"`
}

// TableName specifies the table name for GORM
func (IngestRun) TableName() string {
	return "ingest_runs"
}

// BeforeCreate GORM hook - called before creating a record
func (r *IngestRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IngestFailure is one failed file of an ingest run
type IngestFailure struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RunID     uuid.UUID `gorm:"type:uuid;not null;index:idx_ingest_failures_run" json:"run_id"`
	Path      string    `gorm:"type:text;not null" json:"path"`
	Code      string    `gorm:"type:varchar(64);index:idx_ingest_failures_code" json:"code"`
	Message   string    `gorm:"type:text" json:"message"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GORM
func (IngestFailure) TableName() string {
	return "ingest_failures"
}

// BeforeCreate GORM hook
func (f *IngestFailure) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// RunStatuses returns list of valid run statuses
func RunStatuses() []string {
	return []string{"completed", "completed_with_failures", "aborted"}
}

// NewIngestRun converts a database report into a persistable run
func NewIngestRun(report *DatabaseReport, status string) *IngestRun {
	run := &IngestRun{
		ID:            uuid.New(),
		Directory:     report.Directory,
		Status:        status,
		TotalFiles:    report.TotalFiles,
		ParsedFiles:   report.ParsedFiles,
		TotalRecords:  report.TotalRecords,
		CriticalCount: report.CriticalCount,
		ErrorCount:    report.ErrorCount,
		WarningCount:  report.WarningCount,
	}

	for _, f := range report.FailedFiles {
		run.Failures = append(run.Failures, IngestFailure{
			ID:      uuid.New(),
			RunID:   run.ID,
			Path:    f.Path,
			Code:    f.Code,
			Message: f.Message,
		})
	}

	return run
}
