package imports

import (
	"context"
	"errors"

	"employee-import/common"
	"employee-import/employees"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ErrNothingToImport is returned when a commit is requested without valid rows
var ErrNothingToImport = errors.New("nothing to import: no valid rows")

// Store is the remote employee store. Each call inserts one record and either
// succeeds or fails; the committer does not interpret the error.
type Store interface {
	InsertEmployee(ctx context.Context, employee employees.EmployeeModel) error
}

// GormStore inserts employees through gorm
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) InsertEmployee(ctx context.Context, employee employees.EmployeeModel) error {
	return s.db.WithContext(ctx).Create(&employee).Error
}

// Outcome is the tally of attempted (valid) rows
type Outcome struct {
	SuccessCount int `json:"success_count"`
	FailedCount  int `json:"failed_count"`
}

// CommitFailure is a store rejection of an otherwise valid row
type CommitFailure struct {
	RowNumber int    `json:"row_number"`
	Reason    string `json:"reason"`
}

// CommitResult is the outcome plus the per-row store rejections
type CommitResult struct {
	Outcome
	Failures []CommitFailure `json:"failures,omitempty"`
}

// CommitOptions tunes the commit loop
type CommitOptions struct {
	// Concurrency is the number of in-flight inserts; values below 2 run sequentially
	Concurrency int
}

// Commit submits the valid rows to the store in file order and tallies the
// results. A failed insert never stops the batch and successful inserts are
// never rolled back. Invalid rows are neither submitted nor counted.
func Commit(ctx context.Context, store Store, tenant common.TenantContext, rows []*common.RecordValidationResult, opts CommitOptions) (*CommitResult, error) {
	var valid []*common.RecordValidationResult
	for _, row := range rows {
		if row.IsValid() {
			valid = append(valid, row)
		}
	}
	if len(valid) == 0 {
		return nil, ErrNothingToImport
	}

	log := common.GetLogger().WithFields(logrus.Fields{
		"company_id": tenant.CompanyID,
		"rows":       len(valid),
	})
	log.Info("employee import commit started")

	insert := func(row *common.RecordValidationResult) error {
		return store.InsertEmployee(ctx, employees.NormalizeEmployeeRecord(tenant.CompanyID, row.Data))
	}

	errs := make([]error, len(valid))
	if opts.Concurrency < 2 {
		for i, row := range valid {
			errs[i] = insert(row)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(opts.Concurrency)
		for i, row := range valid {
			g.Go(func() error {
				errs[i] = insert(row)
				return nil
			})
		}
		_ = g.Wait()
	}

	result := &CommitResult{}
	for i, err := range errs {
		if err == nil {
			result.SuccessCount++
			continue
		}
		result.FailedCount++
		result.Failures = append(result.Failures, CommitFailure{
			RowNumber: valid[i].RowNumber,
			Reason:    err.Error(),
		})
		log.WithFields(logrus.Fields{
			"row":   valid[i].RowNumber,
			"error": err.Error(),
		}).Warn("employee insert failed")
	}

	log.WithFields(logrus.Fields{
		"success_count": result.SuccessCount,
		"failed_count":  result.FailedCount,
	}).Info("employee import commit finished")

	return result, nil
}
