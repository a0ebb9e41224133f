package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clinicore/intake-api/internal/middleware"
	"github.com/clinicore/intake-api/internal/model"
	"github.com/clinicore/intake-api/pkg/errors"
)

// Principal returns the authenticated principal placed in the context by
// the auth middleware.
func Principal(c *gin.Context) (model.Principal, error) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return model.Principal{}, errors.Authentication("", nil)
	}
	return principal, nil
}
