package imports

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"employee-import/common"
	"employee-import/employees"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var routerSecret = []byte("imports-test-secret")

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := common.TestDBInit()
	require.NoError(t, err)
	require.NoError(t, employees.AutoMigrate(db))
	require.NoError(t, common.AutoMigrateJobs(db))

	h := NewHandler(db, &common.Config{MaxFileSize: 64 * 1024, ImportConcurrency: 1})

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(common.TenantMiddleware(routerSecret))
	h.RegisterRoutes(api.Group("/imports"))
	return r, db
}

func bearer(t *testing.T, companyID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, common.TenantClaims{
		CompanyID:  companyID,
		EmployeeID: "b8d0c3a4-2f6e-4e8b-9a61-0c7f5d3e9b21",
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := token.SignedString(routerSecret)
	require.NoError(t, err)
	return "Bearer " + s
}

func uploadRequest(t *testing.T, auth, fileName string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", auth)
	return req
}

func do(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", auth)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestImportFlow(t *testing.T) {
	r, db := setupRouter(t)
	auth := bearer(t, testCompanyID, common.RoleHRManager)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, auth, "people.csv", []byte(sampleCSV)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	preview := decodeSession(t, w)
	assert.Equal(t, StatePreview, preview.State)
	assert.Equal(t, "people.csv", preview.FileName)
	assert.Equal(t, Summary{Total: 3, Valid: 2, Invalid: 1}, preview.Summary)
	require.Len(t, preview.Rows, 3)
	assert.Equal(t, "John Doe", preview.Rows[0].Name)
	assert.True(t, preview.Rows[0].IsValid)
	assert.False(t, preview.Rows[1].IsValid)
	assert.Contains(t, preview.Rows[1].Errors, "last_name: is required")
	assert.Contains(t, preview.Rows[1].Errors, "hire_date: must be in YYYY-MM-DD format")

	w = do(r, http.MethodGet, "/api/v1/imports/"+preview.SessionID, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatePreview, decodeSession(t, w).State)

	w = do(r, http.MethodPost, "/api/v1/imports/"+preview.SessionID+"/commit", auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	done := decodeSession(t, w)
	assert.Equal(t, StateComplete, done.State)
	require.NotNil(t, done.Outcome)
	assert.Equal(t, Outcome{SuccessCount: 2, FailedCount: 0}, done.Outcome.Outcome)
	assert.Equal(t, "2 imported successfully", done.Message)

	var count int64
	require.NoError(t, db.Model(&employees.EmployeeModel{}).Where("company_id = ?", testCompanyID).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	var job common.ImportJob
	require.NoError(t, db.First(&job, "id = ?", preview.SessionID).Error)
	assert.Equal(t, common.JobStatusCompleted, job.Status)
	assert.Equal(t, 3, job.TotalRecords)
	assert.Equal(t, 2, job.ValidCount)
	assert.Equal(t, 2, job.SuccessCount)

	w = do(r, http.MethodPost, "/api/v1/imports/"+preview.SessionID+"/commit", auth)
	assert.Equal(t, http.StatusConflict, w.Code, "a completed session cannot commit again")

	w = do(r, http.MethodGet, "/api/v1/imports/jobs", auth)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Jobs []common.ImportJob `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history.Jobs, 1)
	assert.Equal(t, preview.SessionID, history.Jobs[0].ID)
}

func TestImportCommitReportsDuplicates(t *testing.T) {
	r, _ := setupRouter(t)
	auth := bearer(t, testCompanyID, common.RoleAdmin)

	content := []byte("first_name,last_name,email,employee_number,hire_date\n" +
		"A,One,a@x.com,EMP-1,2024-01-15\n" +
		"B,Two,a@x.com,EMP-2,2024-01-15\n")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, auth, "dupes.csv", content))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeSession(t, w).SessionID

	w = do(r, http.MethodPost, "/api/v1/imports/"+id+"/commit", auth)
	require.Equal(t, http.StatusOK, w.Code)

	done := decodeSession(t, w)
	assert.Equal(t, Outcome{SuccessCount: 1, FailedCount: 1}, done.Outcome.Outcome)
	assert.Equal(t, "1 imported successfully, 1 failed", done.Message)
	require.Len(t, done.Outcome.Failures, 1)
	assert.Equal(t, 3, done.Outcome.Failures[0].RowNumber)
}

func TestCreateImportRejectsStructuralErrors(t *testing.T) {
	r, _ := setupRouter(t)
	auth := bearer(t, testCompanyID, common.RoleHRManager)

	tests := []struct {
		name     string
		file     string
		content  string
		expected string
	}{
		{"missing column", "people.csv", "first_name,last_name,email,hire_date\nJohn,Doe,j@x.com,2024-01-15\n", "employee_number"},
		{"header only", "people.csv", "first_name,last_name,email,employee_number,hire_date\n", "empty"},
		{"unsupported extension", "people.pdf", sampleCSV, ".csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, uploadRequest(t, auth, tt.file, []byte(tt.content)))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.expected)
		})
	}
}

func TestCreateImportRejectsOversizedFile(t *testing.T) {
	r, _ := setupRouter(t)
	auth := bearer(t, testCompanyID, common.RoleHRManager)

	big := bytes.Repeat([]byte("x"), 65*1024)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, auth, "big.csv", big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestCommitWithoutValidRows(t *testing.T) {
	r, _ := setupRouter(t)
	auth := bearer(t, testCompanyID, common.RoleHRManager)

	content := []byte("first_name,last_name,email,employee_number,hire_date\nJohn,Doe,not-an-email,EMP-1,2024-01-15\n")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, auth, "bad.csv", content))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeSession(t, w).SessionID

	w = do(r, http.MethodPost, "/api/v1/imports/"+id+"/commit", auth)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodPost, "/api/v1/imports/"+id+"/reset", auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StateUpload, decodeSession(t, w).State)
}

func TestImportAuthorization(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "", "people.csv", []byte(sampleCSV)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, bearer(t, testCompanyID, common.RoleEmployee), "people.csv", []byte(sampleCSV)))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// sessions are invisible to other companies
	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, bearer(t, testCompanyID, common.RoleAdmin), "people.csv", []byte(sampleCSV)))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeSession(t, w).SessionID

	other := bearer(t, "9a7e5d2b-8e0f-4a11-3f1c-2a6e1b7d4c55", common.RoleAdmin)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/imports/"+id, other).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/v1/imports/"+id+"/commit", other).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/api/v1/imports/"+id, other).Code)

	owner := bearer(t, testCompanyID, common.RoleAdmin)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/api/v1/imports/"+id, owner).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/imports/"+id, owner).Code)
}

func TestDownloadTemplate(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodGet, "/api/v1/imports/template", bearer(t, testCompanyID, common.RoleEmployee))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), employees.TemplateFileName)
	assert.Equal(t, employees.TemplateCSV(), w.Body.Bytes())
}
