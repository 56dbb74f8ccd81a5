package companies

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"employee-import/common"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testSecret = []byte("companies-test-secret")

func TestNewCompany(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		slug     string
		expected string
		err      error
	}{
		{"derived", "Acme Corp", "", "acme-corp", nil},
		{"accents folded", "Café Ünïcode", "", "cafe-unicode", nil},
		{"explicit slug", "Acme Corp", "acme", "acme", nil},
		{"blank name", "   ", "", "", ErrNameRequired},
		{"bad explicit slug", "Acme Corp", "Acme_Corp", "", ErrInvalidSlug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			company, err := NewCompany(tt.input, tt.slug)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, company.Slug)
			assert.NotEmpty(t, company.ID)
		})
	}
}

func setup(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := common.TestDBInit()
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	r := gin.New()
	g := r.Group("/companies")
	g.Use(common.TenantMiddleware(testSecret))
	NewHandler(db).RegisterRoutes(g)
	return r, db
}

func token(t *testing.T, companyID, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, common.TenantClaims{
		CompanyID: companyID,
		Role:      role,
	}).SignedString(testSecret)
	require.NoError(t, err)
	return "Bearer " + s
}

func post(r *gin.Engine, auth string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/companies", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetCompany(t *testing.T) {
	r, db := setup(t)
	admin := token(t, "", common.RolePlatformAdmin)

	w := post(r, admin, CreateCompanyRequest{Name: "Acme Corp"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created CompanyModel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "acme-corp", created.Slug)
	assert.Equal(t, "acme-corp", SlugFor(db, created.ID, "employees"))
	assert.Equal(t, "employees", SlugFor(db, "unknown", "employees"))

	w = post(r, admin, CreateCompanyRequest{Name: "ACME corp"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = post(r, admin, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// tenant roles cannot register companies
	w = post(r, token(t, created.ID, common.RoleAdmin), CreateCompanyRequest{Name: "Globex"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	get := func(auth, id string) int {
		req := httptest.NewRequest(http.MethodGet, "/companies/"+id, nil)
		req.Header.Set("Authorization", auth)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, get(token(t, created.ID, common.RoleEmployee), created.ID))
	assert.Equal(t, http.StatusOK, get(admin, created.ID))
	assert.Equal(t, http.StatusNotFound, get(token(t, "9a7e5d2b-8e0f-4a11-3f1c-2a6e1b7d4c55", common.RoleAdmin), created.ID))
	assert.Equal(t, http.StatusNotFound, get(admin, "9a7e5d2b-8e0f-4a11-3f1c-2a6e1b7d4c55"))
}
