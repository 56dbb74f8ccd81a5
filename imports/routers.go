package imports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"employee-import/common"
	"employee-import/employees"
	"employee-import/parsers"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Handler serves the employee import dialog endpoints
type Handler struct {
	DB          *gorm.DB
	Store       Store
	Sessions    *SessionRegistry
	MaxFileSize int64
	Concurrency int
}

func NewHandler(db *gorm.DB, cfg *common.Config) *Handler {
	return &Handler{
		DB:          db,
		Store:       NewGormStore(db),
		Sessions:    NewSessionRegistry(cfg.SessionTTL),
		MaxFileSize: cfg.MaxFileSize,
		Concurrency: cfg.ImportConcurrency,
	}
}

// RegisterRoutes mounts the import endpoints; the group must run TenantMiddleware
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/template", DownloadTemplate)
	rg.GET("/jobs", h.ListJobs)
	rg.POST("", h.CreateImport)
	rg.GET("/:session_id", h.GetImport)
	rg.POST("/:session_id/reset", h.ResetImport)
	rg.POST("/:session_id/commit", h.CommitImport)
	rg.DELETE("/:session_id", h.CloseImport)
}

// ReviewRow is one line of the pre-commit review table
type ReviewRow struct {
	RowNumber      int    `json:"row_number"`
	IsValid        bool   `json:"is_valid"`
	Malformed      bool   `json:"malformed,omitempty"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	EmployeeNumber string `json:"employee_number"`
	Errors         string `json:"errors,omitempty"`
}

// SessionResponse describes an import session
type SessionResponse struct {
	SessionID string        `json:"session_id"`
	State     State         `json:"state"`
	FileName  string        `json:"file_name,omitempty"`
	Summary   Summary       `json:"summary"`
	Rows      []ReviewRow   `json:"rows"`
	Outcome   *CommitResult `json:"outcome,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// DownloadTemplate serves the sample import file
func DownloadTemplate(c *gin.Context) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", employees.TemplateFileName))
	c.Data(http.StatusOK, "text/csv", employees.TemplateCSV())
}

// CreateImport accepts a multipart file, parses and validates it, and opens a
// session in preview. Structural problems reject the whole file.
func (h *Handler) CreateImport(c *gin.Context) {
	tenant, ok := common.GetTenant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	if !tenant.CanImport() {
		c.JSON(http.StatusForbidden, gin.H{"error": ErrImportNotPermitted.Error()})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}
	defer file.Close()

	if header.Size > h.MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("File exceeds %d bytes", h.MaxFileSize)})
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, h.MaxFileSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}
	if int64(len(content)) > h.MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("File exceeds %d bytes", h.MaxFileSize)})
		return
	}

	session := NewSession(tenant)
	if err := session.Load(header.Filename, content); err != nil {
		var missing *parsers.MissingColumnsError
		switch {
		case errors.As(err, &missing):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "missing_columns": missing.Columns})
		case errors.Is(err, parsers.ErrEmptyFile), errors.Is(err, ErrUnsupportedFormat):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Failed to parse file: %v", err)})
		}
		return
	}

	h.Sessions.Add(session)

	summary := session.Summary()
	c.Set("rows_processed", summary.Total)
	common.GetLogger().WithFields(logrus.Fields{
		"company_id": tenant.CompanyID,
		"session_id": session.ID,
		"file":       header.Filename,
		"total":      summary.Total,
		"valid":      summary.Valid,
	}).Info("employee import previewed")

	c.JSON(http.StatusCreated, buildResponse(session))
}

// GetImport returns the session state with its review rows or outcome
func (h *Handler) GetImport(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, buildResponse(session))
}

// ResetImport returns a previewed session to upload
func (h *Handler) ResetImport(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := session.Reset(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, buildResponse(session))
}

// CommitImport submits the valid rows and records the outcome
func (h *Handler) CommitImport(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	// runs to completion even if the client goes away
	ctx := context.WithoutCancel(c.Request.Context())

	result, err := session.Commit(ctx, h.Store, CommitOptions{Concurrency: h.Concurrency})
	switch {
	case errors.Is(err, ErrNothingToImport):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Set("rows_processed", result.SuccessCount+result.FailedCount)

	if err := RecordJob(h.DB, session, result); err != nil {
		common.GetLogger().WithError(err).WithField("session_id", session.ID).Error("failed to record import job")
	}

	c.JSON(http.StatusOK, buildResponse(session))
}

// CloseImport discards the session (dialog closed)
func (h *Handler) CloseImport(c *gin.Context) {
	tenant, ok := common.GetTenant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	err := h.Sessions.Remove(tenant.CompanyID, c.Param("session_id"))
	switch {
	case errors.Is(err, ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Import session not found"})
	case err != nil:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.Status(http.StatusNoContent)
	}
}

// ListJobs returns the company's import history, newest first
func (h *Handler) ListJobs(c *gin.Context) {
	tenant, ok := common.GetTenant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	limit := 50
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}

	var jobs []common.ImportJob
	err := h.DB.Where("company_id = ?", tenant.CompanyID).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list import jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (h *Handler) lookup(c *gin.Context) (*Session, bool) {
	tenant, ok := common.GetTenant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return nil, false
	}
	session, err := h.Sessions.Get(tenant.CompanyID, c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Import session not found"})
		return nil, false
	}
	return session, true
}

func buildResponse(session *Session) SessionResponse {
	resp := SessionResponse{
		SessionID: session.ID,
		State:     session.State(),
		FileName:  session.FileName(),
		Summary:   session.Summary(),
		Rows:      []ReviewRow{},
	}

	for _, r := range session.Rows() {
		resp.Rows = append(resp.Rows, ReviewRow{
			RowNumber:      r.RowNumber,
			IsValid:        r.IsValid(),
			Malformed:      r.Malformed,
			Name:           strings.TrimSpace(r.Data["first_name"] + " " + r.Data["last_name"]),
			Email:          r.Data["email"],
			EmployeeNumber: r.Data["employee_number"],
			Errors:         strings.Join(r.Messages(), "; "),
		})
	}

	if result := session.Result(); result != nil {
		resp.Outcome = result
		resp.Message = CompletionMessage(result.Outcome)
	}
	return resp
}

// CompletionMessage renders "N imported successfully" and, when any row
// failed, ", M failed"
func CompletionMessage(o Outcome) string {
	msg := fmt.Sprintf("%d imported successfully", o.SuccessCount)
	if o.FailedCount > 0 {
		msg += fmt.Sprintf(", %d failed", o.FailedCount)
	}
	return msg
}
