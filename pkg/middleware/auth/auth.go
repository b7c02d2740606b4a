package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	appErrors "github.com/campusplan/scheduler-api/pkg/errors"
	"github.com/campusplan/scheduler-api/pkg/response"
)

const (
	RoleAdmin   = "admin"
	RoleFaculty = "faculty"

	contextRoleKey    = "auth_role"
	contextSubjectKey = "auth_subject"
)

// Claims carries the identity asserted by the issuing front door.
type Claims struct {
	Role      string `json:"role"`
	FacultyID string `json:"facultyId,omitempty"`
	jwt.RegisteredClaims
}

// Middleware validates the bearer token and stores role/subject in the context.
// Token issuance lives outside this service; only HMAC verification happens here.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing bearer token"))
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid bearer token"))
			c.Abort()
			return
		}

		c.Set(contextRoleKey, claims.Role)
		c.Set(contextSubjectKey, claims.FacultyID)
		c.Next()
	}
}

// RequireAdmin rejects requests whose token does not carry the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Role(c) != RoleAdmin {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "admin role required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Role returns the role stored by the auth middleware.
func Role(c *gin.Context) string {
	if v, exists := c.Get(contextRoleKey); exists {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

// FacultyID returns the faculty identity asserted by the token, if any.
func FacultyID(c *gin.Context) string {
	if v, exists := c.Get(contextSubjectKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
