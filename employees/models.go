package employees

import (
	"time"

	"gorm.io/gorm"
)

// EmployeeModel is a tenant-scoped employee record.
// Employee number and work email are unique per company; a duplicate insert is
// rejected by the store and surfaces as a per-row commit failure.
type EmployeeModel struct {
	ID               string    `gorm:"primaryKey;type:text" json:"id"`
	CompanyID        string    `gorm:"not null;uniqueIndex:idx_employees_company_number;uniqueIndex:idx_employees_company_email" json:"company_id"`
	FirstName        string    `gorm:"not null" json:"first_name"`
	LastName         string    `gorm:"not null" json:"last_name"`
	Email            string    `gorm:"not null;uniqueIndex:idx_employees_company_email" json:"email"`
	EmployeeNumber   string    `gorm:"not null;uniqueIndex:idx_employees_company_number" json:"employee_number"`
	HireDate         string    `gorm:"not null" json:"hire_date"` // YYYY-MM-DD as supplied
	JobTitle         *string   `json:"job_title,omitempty"`
	EmploymentType   string    `gorm:"not null" json:"employment_type"`
	EmploymentStatus string    `gorm:"not null" json:"employment_status"`
	Phone            *string   `json:"phone,omitempty"`
	PersonalEmail    *string   `json:"personal_email,omitempty"`
	WorkLocation     *string   `json:"work_location,omitempty"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

func (EmployeeModel) TableName() string {
	return "employees"
}

// AutoMigrate creates the employees table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&EmployeeModel{})
}

// Values returns the record keyed by import column; absent optional fields are empty
func (e EmployeeModel) Values() map[string]string {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	return map[string]string{
		"first_name":        e.FirstName,
		"last_name":         e.LastName,
		"email":             e.Email,
		"employee_number":   e.EmployeeNumber,
		"hire_date":         e.HireDate,
		"job_title":         deref(e.JobTitle),
		"employment_type":   e.EmploymentType,
		"employment_status": e.EmploymentStatus,
		"phone":             deref(e.Phone),
		"personal_email":    deref(e.PersonalEmail),
		"work_location":     deref(e.WorkLocation),
	}
}
