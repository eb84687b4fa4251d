package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/service/auth"
	"github.com/jwalitptl/clinic-console/pkg/httputil"
)

const ContextSession = "session"

type Authenticator interface {
	Authenticate(ctx context.Context, token string, role model.Role) (*auth.Session, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(a Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: a}
}

// RequireRole admits requests carrying a valid session for role, from the
// Authorization header or the role's session cookie, and stores the session
// in the context.
func (m *AuthMiddleware) RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := m.auth.Authenticate(c.Request.Context(), TokenFor(c, role), role)
		if err != nil {
			httputil.AbortWithError(c, err)
			return
		}

		ctx := c.Request.Context()
		logger := zerolog.Ctx(ctx).With().
			Str("role", string(sess.Role)).
			Str("subject", sess.Subject.String()).
			Logger()
		c.Request = c.Request.WithContext(logger.WithContext(ctx))

		c.Set(ContextSession, sess)
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

func bearer(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// TokenFor returns the presented session token for role. The Authorization
// header takes precedence over the cookie.
func TokenFor(c *gin.Context, role model.Role) string {
	if token := bearer(c); token != "" {
		return token
	}
	token, _ := c.Cookie(role.CookieName())
	return token
}

// Tokens collects every presented session marker by role. A bearer token is
// offered for each role without a cookie; verification discards it for the
// role it was not issued to.
func Tokens(c *gin.Context) map[model.Role]string {
	tokens := make(map[model.Role]string, 2)
	header := bearer(c)
	for _, role := range []model.Role{model.RoleAdmin, model.RoleDoctor} {
		if token, err := c.Cookie(role.CookieName()); err == nil && token != "" {
			tokens[role] = token
		} else if header != "" {
			tokens[role] = header
		}
	}
	return tokens
}

// SessionFrom returns the session stored by RequireRole.
func SessionFrom(c *gin.Context) (*auth.Session, bool) {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*auth.Session)
	return sess, ok
}
