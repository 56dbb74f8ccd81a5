package imports

import (
	"encoding/json"
	"time"

	"employee-import/common"

	"gorm.io/gorm"
)

// RecordJob persists the outcome of a completed session. Only tallies and
// store rejections are kept; the rows themselves are never written.
func RecordJob(db *gorm.DB, session *Session, result *CommitResult) error {
	summary := session.Summary()
	now := time.Now()

	job := common.ImportJob{
		ID:           session.ID,
		CompanyID:    session.Tenant.CompanyID,
		StartedBy:    session.Tenant.EmployeeID,
		FileName:     session.FileName(),
		Status:       common.JobStatusCompleted,
		TotalRecords: summary.Total,
		ValidCount:   summary.Valid,
		SuccessCount: result.SuccessCount,
		FailCount:    result.FailedCount,
		CreatedAt:    session.CreatedAt,
		CompletedAt:  &now,
	}
	if result.SuccessCount == 0 {
		job.Status = common.JobStatusFailed
	}
	if len(result.Failures) > 0 {
		data, err := json.Marshal(result.Failures)
		if err != nil {
			return err
		}
		job.Errors = string(data)
	}

	return db.Create(&job).Error
}
