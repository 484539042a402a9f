package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/karthik1704/rsr-v1/internal/shared/apperr"
	"github.com/karthik1704/rsr-v1/internal/shared/auth"
	"github.com/karthik1704/rsr-v1/internal/shared/server/respond"
)

const (
	userIDKey      = "userId"
	userEmailKey   = "userEmail"
	userNameKey    = "userName"
	userPictureKey = "userPicture"
	userStaffKey   = "userStaff"

	// AccessTokenCookie is set by the form login endpoint.
	AccessTokenCookie = "access_token"
)

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(raw string) (auth.Claims, error)
}

// Auth validates JWTs from the Authorization header or the access_token
// cookie and stores identity in context. Paths with one of the public
// prefixes pass through untouched.
func Auth(tokens TokenVerifier, publicPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		token, ok := bearerToken(c)
		if !ok {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(userIDKey, claims.Subject)
		if claims.Email != "" {
			c.Set(userEmailKey, claims.Email)
		}
		if claims.Name != "" {
			c.Set(userNameKey, claims.Name)
		}
		if claims.Picture != "" {
			c.Set(userPictureKey, claims.Picture)
		}
		c.Set(userStaffKey, claims.Staff)
		c.Next()
	}
}

// StaffLookup reports whether a user holds staff rights right now.
type StaffLookup interface {
	IsStaff(ctx context.Context, userID string) (bool, error)
}

// RequireStaff rejects callers without staff rights. With a lookup the stored
// user decides, so a revoked flag applies before the token expires. A nil
// lookup trusts the token claim.
func RequireStaff(lookup StaffLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		staff := IsStaff(c)
		if lookup != nil {
			var err error
			staff, err = lookup.IsStaff(c.Request.Context(), UserIDFromContext(c))
			if err != nil && !errors.Is(err, apperr.ErrNotFound) {
				respond.FromError(c, err)
				return
			}
		}
		if !staff {
			respond.Error(c, http.StatusForbidden, "forbidden", "staff only", nil)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header != "" {
		if !strings.HasPrefix(header, "Bearer ") {
			return "", false
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
		return token, token != ""
	}
	cookie, err := c.Cookie(AccessTokenCookie)
	if err != nil {
		return "", false
	}
	cookie = strings.TrimSpace(strings.TrimPrefix(cookie, "Bearer "))
	return cookie, cookie != ""
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return stringFromContext(c, userIDKey)
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	return stringFromContext(c, userEmailKey)
}

// UserNameFromContext fetches the user name set by the auth middleware.
func UserNameFromContext(c *gin.Context) string {
	return stringFromContext(c, userNameKey)
}

// UserPictureFromContext fetches the user picture set by the auth middleware.
func UserPictureFromContext(c *gin.Context) string {
	return stringFromContext(c, userPictureKey)
}

// IsStaff reports whether the authenticated caller is staff.
func IsStaff(c *gin.Context) bool {
	if c == nil {
		return false
	}
	return c.GetBool(userStaffKey)
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
