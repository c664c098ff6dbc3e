package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	SessionHeader = "X-Session-ID"
	principalKey  = "principal"
)

// SessionLookup resolves a live session. A nil session with a nil error means
// the session is unknown or expired.
type SessionLookup interface {
	Resolve(ctx context.Context, id string) (*models.Session, error)
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	Role      models.SessionRole
	SessionID string
	StudentID uint
	AdminID   uint
	RegNo     string
}

func (p *Principal) IsAdmin() bool { return p != nil && p.Role == models.RoleAdmin }

// Authenticate attaches a Principal when the request carries a valid admin
// bearer token or student session id. It never rejects; use the Require*
// middleware for that.
func Authenticate(tokens *TokenIssuer, sessions SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			claims, err := tokens.Parse(token)
			if err == nil {
				session, err := sessions.Resolve(ctx, claims.ID)
				if err != nil {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
					return
				}
				if session != nil && session.AdminID != nil && *session.AdminID == claims.AdminID {
					c.Set(principalKey, &Principal{Role: models.RoleAdmin, SessionID: session.ID, AdminID: claims.AdminID})
				}
			}
			c.Next()
			return
		}

		if id := strings.TrimSpace(c.GetHeader(SessionHeader)); id != "" {
			session, err := sessions.Resolve(ctx, id)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
				return
			}
			if session != nil && session.StudentID != nil {
				c.Set(principalKey, &Principal{
					Role:      models.RoleStudent,
					SessionID: session.ID,
					StudentID: *session.StudentID,
					RegNo:     session.RegNo,
				})
			}
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

// PrincipalFrom returns the caller, or nil when unauthenticated.
func PrincipalFrom(c *gin.Context) *Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*Principal); ok {
			return p
		}
	}
	return nil
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if PrincipalFrom(c) == nil {
			abortUnauthorized(c)
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFrom(c)
		if p == nil {
			abortUnauthorized(c)
			return
		}
		if !p.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
			return
		}
		c.Next()
	}
}

func RequireStudent() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFrom(c)
		if p == nil || p.Role != models.RoleStudent {
			abortUnauthorized(c)
			return
		}
		c.Next()
	}
}

// RequireSelfOrAdmin lets admins through, and students only when the path
// parameter names their own id.
func RequireSelfOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFrom(c)
		if p == nil {
			abortUnauthorized(c)
			return
		}
		if p.IsAdmin() {
			c.Next()
			return
		}
		id, err := strconv.ParseUint(c.Param(param), 10, 64)
		if err != nil || uint(id) != p.StudentID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied"})
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
}
