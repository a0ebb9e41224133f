package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/clinicore/intake-api/internal/model"
	apperrors "github.com/clinicore/intake-api/pkg/errors"
)

type stubValidator struct {
	principals map[string]model.Principal
}

func (s stubValidator) ValidateToken(token string) (model.Principal, error) {
	p, ok := s.principals[token]
	if !ok {
		return model.Principal{}, apperrors.Authentication("invalid token", nil)
	}
	return p, nil
}

func newAuthEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	clinicID := uuid.New()
	mw := NewAuthMiddleware(stubValidator{principals: map[string]model.Principal{
		"staff-token": {UserID: uuid.New(), Role: model.RoleStaff, ClinicID: &clinicID},
		"admin-token": {UserID: uuid.New(), Role: model.RoleClinicAdmin, ClinicID: &clinicID},
	}})

	engine := gin.New()
	protected := engine.Group("", mw.Authenticate())
	protected.GET("/any", func(c *gin.Context) { c.Status(http.StatusOK) })

	admin := protected.Group("", mw.RequireRole(model.RoleClinicAdmin))
	admin.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })
	return engine
}

func get(engine *gin.Engine, path, authHeader string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w.Code
}

func TestAuthenticate(t *testing.T) {
	engine := newAuthEngine()

	assert.Equal(t, http.StatusUnauthorized, get(engine, "/any", ""))
	assert.Equal(t, http.StatusUnauthorized, get(engine, "/any", "Basic abc"))
	assert.Equal(t, http.StatusUnauthorized, get(engine, "/any", "Bearer unknown"))
	assert.Equal(t, http.StatusOK, get(engine, "/any", "Bearer staff-token"))
}

func TestRequireRole(t *testing.T) {
	engine := newAuthEngine()

	assert.Equal(t, http.StatusForbidden, get(engine, "/admin", "Bearer staff-token"))
	assert.Equal(t, http.StatusOK, get(engine, "/admin", "Bearer admin-token"))
}
