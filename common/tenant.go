package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleAdmin         = "admin"
	RoleHRManager     = "hr_manager"
	RoleEmployee      = "employee"
	RolePlatformAdmin = "platform_admin"
)

const tenantContextKey = "tenant"

var ErrInvalidToken = errors.New("invalid or expired token")

// TenantContext identifies the caller: the company the data is scoped to, the
// acting employee and their role. It is passed explicitly to import operations.
type TenantContext struct {
	CompanyID  string `json:"company_id"`
	EmployeeID string `json:"employee_id,omitempty"`
	Role       string `json:"role"`
}

// CanImport reports whether the role may bulk-import employees
func (t TenantContext) CanImport() bool {
	return t.Role == RoleAdmin || t.Role == RoleHRManager
}

// TenantClaims is the JWT payload issued by the auth provider
type TenantClaims struct {
	CompanyID  string `json:"company_id"`
	EmployeeID string `json:"employee_id,omitempty"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// ParseTenantToken verifies an HS256 token and extracts the tenant context
func ParseTenantToken(tokenString string, secret []byte) (TenantContext, error) {
	claims := &TenantClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return TenantContext{}, ErrInvalidToken
	}

	if claims.Role != RolePlatformAdmin {
		if _, err := uuid.Parse(claims.CompanyID); err != nil {
			return TenantContext{}, fmt.Errorf("%w: company_id is not a UUID", ErrInvalidToken)
		}
	}
	if claims.Role == "" {
		return TenantContext{}, fmt.Errorf("%w: role is missing", ErrInvalidToken)
	}

	return TenantContext{
		CompanyID:  claims.CompanyID,
		EmployeeID: claims.EmployeeID,
		Role:       claims.Role,
	}, nil
}

// TenantMiddleware requires a bearer token and stores the tenant on the gin context
func TenantMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization bearer token is required"})
			return
		}

		tenant, err := ParseTenantToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(tenantContextKey, tenant)
		c.Next()
	}
}

// GetTenant returns the tenant stored by TenantMiddleware
func GetTenant(c *gin.Context) (TenantContext, bool) {
	v, ok := c.Get(tenantContextKey)
	if !ok {
		return TenantContext{}, false
	}
	tenant, ok := v.(TenantContext)
	return tenant, ok
}
