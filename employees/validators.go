package employees

import (
	"strings"
	"time"

	"employee-import/common"
	"employee-import/parsers"

	"github.com/google/uuid"
)

const (
	EmploymentTypeFullTime = "full_time"
	EmploymentStatusActive = "active"
)

// RequiredColumns must all appear in an import file header
var RequiredColumns = []string{"first_name", "last_name", "email", "employee_number", "hire_date"}

// OptionalColumns are read when present
var OptionalColumns = []string{"job_title", "employment_type", "employment_status", "phone", "personal_email", "work_location"}

// ImportColumns is the full recognized column set, in template order
var ImportColumns = append(append([]string{}, RequiredColumns...), OptionalColumns...)

// ImportSchema is the parser schema for employee import files
var ImportSchema = parsers.Schema{
	Required:   RequiredColumns,
	Recognized: ImportColumns,
}

var EmploymentTypes = []string{"full_time", "part_time", "contract", "intern", "temporary"}

var EmploymentStatuses = []string{"active", "on_leave", "terminated", "suspended"}

// ValidateEmployeeRecord checks one parsed row against the import schema.
// Every rule runs; a row may carry several errors at once.
func ValidateEmployeeRecord(record parsers.Record) *common.RecordValidationResult {
	result := &common.RecordValidationResult{
		RowNumber: record.RowNumber,
		Data:      record.Fields,
		Malformed: record.Malformed,
	}
	get := func(field string) string {
		return strings.TrimSpace(record.Fields[field])
	}

	for _, field := range []string{"first_name", "last_name"} {
		if err := common.ValidateRequired(field, get(field)); err != nil {
			result.AddError(err.Field, err.Message)
		}
	}

	// Validate email (required)
	if email := get("email"); email == "" {
		result.AddError("email", "is required")
	} else if !common.ValidateEmail(email) {
		result.AddError("email", "must be a valid email address")
	}

	if err := common.ValidateRequired("employee_number", get("employee_number")); err != nil {
		result.AddError(err.Field, err.Message)
	}

	if hireDate := get("hire_date"); hireDate == "" {
		result.AddError("hire_date", "is required")
	} else if !common.ValidateDatePattern(hireDate) {
		result.AddError("hire_date", "must be in YYYY-MM-DD format")
	}

	// Optional enums default when absent
	if v := get("employment_type"); v != "" {
		if err := common.ValidateEnum("employment_type", v, EmploymentTypes); err != nil {
			result.AddError(err.Field, err.Message)
		}
	}
	if v := get("employment_status"); v != "" {
		if err := common.ValidateEnum("employment_status", v, EmploymentStatuses); err != nil {
			result.AddError(err.Field, err.Message)
		}
	}

	if v := get("personal_email"); v != "" && !common.ValidateEmail(v) {
		result.AddError("personal_email", "must be a valid email address")
	}

	return result
}

// ValidateRecords validates parsed rows in file order
func ValidateRecords(records []parsers.Record) []*common.RecordValidationResult {
	results := make([]*common.RecordValidationResult, len(records))
	for i, record := range records {
		results[i] = ValidateEmployeeRecord(record)
	}
	return results
}

// NormalizeEmployeeRecord builds the store record for a validated row,
// filling employment_type and employment_status defaults
func NormalizeEmployeeRecord(companyID string, data map[string]string) EmployeeModel {
	now := time.Now()

	get := func(field string) string {
		return strings.TrimSpace(data[field])
	}
	optional := func(field string) *string {
		if v := get(field); v != "" {
			return &v
		}
		return nil
	}

	employmentType := get("employment_type")
	if employmentType == "" {
		employmentType = EmploymentTypeFullTime
	}
	employmentStatus := get("employment_status")
	if employmentStatus == "" {
		employmentStatus = EmploymentStatusActive
	}

	return EmployeeModel{
		ID:               uuid.New().String(),
		CompanyID:        companyID,
		FirstName:        get("first_name"),
		LastName:         get("last_name"),
		Email:            get("email"),
		EmployeeNumber:   get("employee_number"),
		HireDate:         get("hire_date"),
		JobTitle:         optional("job_title"),
		EmploymentType:   employmentType,
		EmploymentStatus: employmentStatus,
		Phone:            optional("phone"),
		PersonalEmail:    optional("personal_email"),
		WorkLocation:     optional("work_location"),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
