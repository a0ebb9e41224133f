package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clinicore/intake-api/internal/model"
	"github.com/clinicore/intake-api/pkg/errors"
	"github.com/clinicore/intake-api/pkg/httputil"
)

const ContextPrincipal = "principal"

type tokenValidator interface {
	ValidateToken(token string) (model.Principal, error)
}

type AuthMiddleware struct {
	auth tokenValidator
}

func NewAuthMiddleware(auth tokenValidator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Authenticate verifies the bearer token and stores the principal in the
// request context. Scope decisions happen in the services, not here.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, errors.Authentication("missing authorization header", nil))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondWithError(c, errors.Authentication("invalid authorization format", nil))
			c.Abort()
			return
		}

		principal, err := m.auth.ValidateToken(parts[1])
		if err != nil {
			httputil.RespondWithError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextPrincipal, principal)
		c.Next()
	}
}

// RequireRole rejects principals below the given role before the handler
// runs. Clinic scoping still happens downstream.
func (m *AuthMiddleware) RequireRole(min model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			httputil.RespondWithError(c, errors.Authentication("", nil))
			c.Abort()
			return
		}
		if !principal.Role.AtLeast(min) {
			httputil.RespondWithError(c, errors.Authorization("insufficient role"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// PrincipalFrom reads the authenticated principal set by Authenticate.
func PrincipalFrom(c *gin.Context) (model.Principal, bool) {
	v, exists := c.Get(ContextPrincipal)
	if !exists {
		return model.Principal{}, false
	}
	principal, ok := v.(model.Principal)
	return principal, ok
}
