package companies

import (
	"errors"
	"net/http"

	"employee-import/common"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

// RegisterRoutes mounts the company endpoints; the group must run TenantMiddleware
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.CreateCompany)
	rg.GET("/:company_id", h.GetCompany)
}

// CreateCompanyRequest registers a tenant
type CreateCompanyRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug,omitempty"`
}

// CreateCompany registers a tenant; platform admins only
func (h *Handler) CreateCompany(c *gin.Context) {
	tenant, ok := common.GetTenant(c)
	if !ok || tenant.Role != common.RolePlatformAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "platform admin role required"})
		return
	}

	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, err := NewCompany(req.Name, req.Slug)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing int64
	if err := h.DB.Model(&CompanyModel{}).Where("slug = ?", company.Slug).Count(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create company"})
		return
	}
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Slug already exists"})
		return
	}

	if err := h.DB.Create(&company).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create company"})
		return
	}

	common.GetLogger().WithFields(logrus.Fields{
		"company_id": company.ID,
		"slug":       company.Slug,
	}).Info("company created")

	c.JSON(http.StatusCreated, company)
}

// GetCompany returns the caller's company; platform admins may read any
func (h *Handler) GetCompany(c *gin.Context) {
	tenant, ok := common.GetTenant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	id := c.Param("company_id")
	if tenant.Role != common.RolePlatformAdmin && tenant.CompanyID != id {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrCompanyMissing.Error()})
		return
	}

	company, err := FindByID(h.DB, id)
	switch {
	case errors.Is(err, ErrCompanyMissing):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load company"})
	default:
		c.JSON(http.StatusOK, company)
	}
}
