package exports

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"employee-import/common"
	"employee-import/companies"
	"employee-import/employees"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BatchSize is the number of records fetched in a single query
const BatchSize = 2000

const (
	FormatCSV    = "csv"
	FormatNDJSON = "ndjson"
)

var ErrUnsupportedFormat = errors.New("invalid format, must be: csv or ndjson")

// Filter narrows an export to one employment status and/or type
type Filter struct {
	EmploymentStatus string
	EmploymentType   string
}

type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

// RegisterRoutes mounts the export endpoint; the group must run TenantMiddleware
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/export", h.StreamExport)
}

// StreamExport streams the caller's employees as CSV or NDJSON. The columns
// match the import template so an export can be re-imported.
func (h *Handler) StreamExport(c *gin.Context) {
	tenant, ok := common.GetTenant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	format := c.DefaultQuery("format", FormatCSV)
	if format != FormatCSV && format != FormatNDJSON {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrUnsupportedFormat.Error()})
		return
	}

	filter := Filter{
		EmploymentStatus: c.Query("employment_status"),
		EmploymentType:   c.Query("employment_type"),
	}
	if filter.EmploymentStatus != "" {
		if err := common.ValidateEnum("employment_status", filter.EmploymentStatus, employees.EmploymentStatuses); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if filter.EmploymentType != "" {
		if err := common.ValidateEnum("employment_type", filter.EmploymentType, employees.EmploymentTypes); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	name := companies.SlugFor(h.DB, tenant.CompanyID, "employees")
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.%s", name, timestamp, format)

	if format == FormatCSV {
		c.Header("Content-Type", "text/csv")
	} else {
		c.Header("Content-Type", "application/x-ndjson")
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Status(http.StatusOK)

	total, err := WriteEmployees(c.Request.Context(), c.Writer, h.DB, tenant.CompanyID, format, filter)
	if err != nil {
		// headers are already sent; the truncated body is all the client gets
		common.GetLogger().WithError(err).WithFields(logrus.Fields{
			"company_id": tenant.CompanyID,
			"written":    total,
		}).Error("employee export aborted")
		_ = c.Error(err)
	}

	c.Set("rows_processed", total)
}

// WriteEmployees writes the company's employees to w in batches, ordered by
// employee number, and returns how many records were written
func WriteEmployees(ctx context.Context, w io.Writer, db *gorm.DB, companyID, format string, filter Filter) (int, error) {
	var write func(map[string]string) error
	var flush func() error

	switch format {
	case FormatCSV:
		csvWriter := csv.NewWriter(w)
		if err := csvWriter.Write(employees.ImportColumns); err != nil {
			return 0, err
		}
		row := make([]string, len(employees.ImportColumns))
		write = func(values map[string]string) error {
			for i, col := range employees.ImportColumns {
				row[i] = values[col]
			}
			return csvWriter.Write(row)
		}
		flush = func() error {
			csvWriter.Flush()
			return csvWriter.Error()
		}
	case FormatNDJSON:
		enc := json.NewEncoder(w)
		write = func(values map[string]string) error {
			for k, v := range values {
				if v == "" {
					delete(values, k)
				}
			}
			return enc.Encode(values)
		}
		flush = func() error { return nil }
	default:
		return 0, ErrUnsupportedFormat
	}

	query := db.WithContext(ctx).Model(&employees.EmployeeModel{}).Where("company_id = ?", companyID)
	if filter.EmploymentStatus != "" {
		query = query.Where("employment_status = ?", filter.EmploymentStatus)
	}
	if filter.EmploymentType != "" {
		query = query.Where("employment_type = ?", filter.EmploymentType)
	}
	query = query.Session(&gorm.Session{})

	total := 0
	for offset := 0; ; offset += BatchSize {
		var batch []employees.EmployeeModel
		if err := query.Order("employee_number").Limit(BatchSize).Offset(offset).Find(&batch).Error; err != nil {
			return total, fmt.Errorf("fetch employees at offset %d: %w", offset, err)
		}

		for _, e := range batch {
			if err := write(e.Values()); err != nil {
				return total, err
			}
			total++
		}
		if err := flush(); err != nil {
			return total, err
		}

		if len(batch) < BatchSize {
			break
		}
	}

	return total, nil
}
