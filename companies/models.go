package companies

import (
	"errors"
	"strings"
	"time"

	"employee-import/common"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

var (
	ErrNameRequired   = errors.New("company name is required")
	ErrInvalidSlug    = errors.New("slug must be in kebab-case format (lowercase, hyphen-separated)")
	ErrCompanyMissing = errors.New("company not found")
)

// CompanyModel is a tenant. Employees and import jobs are scoped by its ID.
type CompanyModel struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (CompanyModel) TableName() string {
	return "companies"
}

// AutoMigrate creates the companies table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&CompanyModel{})
}

// NewCompany builds a company; an empty slugValue is derived from the name
func NewCompany(name, slugValue string) (CompanyModel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return CompanyModel{}, ErrNameRequired
	}

	if slugValue == "" {
		slugValue = slug.Make(name)
	}
	if !common.ValidateKebabCase(slugValue) {
		return CompanyModel{}, ErrInvalidSlug
	}

	return CompanyModel{
		ID:        uuid.New().String(),
		Name:      name,
		Slug:      slugValue,
		CreatedAt: time.Now(),
	}, nil
}

// FindByID loads a company or returns ErrCompanyMissing
func FindByID(db *gorm.DB, id string) (*CompanyModel, error) {
	var company CompanyModel
	err := db.First(&company, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCompanyMissing
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// SlugFor returns the company slug, or fallback when the company is unknown
func SlugFor(db *gorm.DB, id, fallback string) string {
	company, err := FindByID(db, id)
	if err != nil {
		return fallback
	}
	return company.Slug
}

// Resolve accepts a company id or slug
func Resolve(db *gorm.DB, ref string) (*CompanyModel, error) {
	if _, err := uuid.Parse(ref); err == nil {
		return FindByID(db, ref)
	}

	var company CompanyModel
	err := db.First(&company, "slug = ?", ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCompanyMissing
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}
