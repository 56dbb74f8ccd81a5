package common

import (
	"time"

	"gorm.io/gorm"
)

const (
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// ImportJob records the outcome of a committed import session.
// Parsed and validated rows are never persisted; only the tallies and commit failures are.
type ImportJob struct {
	ID           string     `gorm:"primaryKey;type:text" json:"id"`
	CompanyID    string     `gorm:"not null;index" json:"company_id"`
	StartedBy    string     `json:"started_by,omitempty"`
	FileName     string     `json:"file_name"`
	Status       string     `gorm:"not null" json:"status"`
	TotalRecords int        `gorm:"default:0" json:"total_records"`
	ValidCount   int        `gorm:"default:0" json:"valid_count"`
	SuccessCount int        `gorm:"default:0" json:"success_count"`
	FailCount    int        `gorm:"default:0" json:"fail_count"`
	Errors       string     `gorm:"type:text" json:"errors,omitempty"` // JSON array of commit failures
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// ApiMetric tracks API performance metrics
type ApiMetric struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RequestID     string    `gorm:"index" json:"request_id"`
	Endpoint      string    `gorm:"not null" json:"endpoint"`
	Method        string    `gorm:"not null" json:"method"`
	StatusCode    int       `gorm:"not null" json:"status_code"`
	DurationMs    int       `gorm:"not null" json:"duration_ms"`
	RowsProcessed int       `gorm:"default:0" json:"rows_processed"`
	Errors        string    `gorm:"type:text" json:"errors,omitempty"` // JSON errors
	Timestamp     time.Time `gorm:"not null" json:"timestamp"`
}

func (ImportJob) TableName() string { return "import_jobs" }
func (ApiMetric) TableName() string { return "api_metrics" }

// AutoMigrateJobs creates job tracking tables
func AutoMigrateJobs(db *gorm.DB) error {
	return db.AutoMigrate(&ImportJob{}, &ApiMetric{})
}
