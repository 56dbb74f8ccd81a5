package common

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims TenantClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(secret)
	require.NoError(t, err)
	return s
}

func TestParseTenantToken(t *testing.T) {
	companyID := "3f1c2a6e-1b7d-4c55-9a7e-5d2b8e0f4a11"

	valid := signToken(t, testSecret, TenantClaims{
		CompanyID: companyID,
		Role:      RoleHRManager,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	tenant, err := ParseTenantToken(valid, testSecret)
	require.NoError(t, err)
	assert.Equal(t, companyID, tenant.CompanyID)
	assert.Equal(t, RoleHRManager, tenant.Role)
	assert.True(t, tenant.CanImport())

	_, err = ParseTenantToken(valid, []byte("other-secret"))
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := signToken(t, testSecret, TenantClaims{
		CompanyID: companyID,
		Role:      RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	_, err = ParseTenantToken(expired, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	badCompany := signToken(t, testSecret, TenantClaims{CompanyID: "acme", Role: RoleAdmin})
	_, err = ParseTenantToken(badCompany, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCanImport(t *testing.T) {
	assert.True(t, TenantContext{Role: RoleAdmin}.CanImport())
	assert.True(t, TenantContext{Role: RoleHRManager}.CanImport())
	assert.False(t, TenantContext{Role: RoleEmployee}.CanImport())
	assert.False(t, TenantContext{Role: RolePlatformAdmin}.CanImport())
}

func TestTenantMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TenantMiddleware(testSecret))
	r.GET("/whoami", func(c *gin.Context) {
		tenant, ok := GetTenant(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, tenant)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := signToken(t, testSecret, TenantClaims{
		CompanyID: "3f1c2a6e-1b7d-4c55-9a7e-5d2b8e0f4a11",
		Role:      RoleAdmin,
	})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)
}
