package clinic

import (
	"github.com/gin-gonic/gin"

	"github.com/clinicore/intake-api/internal/handler"
	"github.com/clinicore/intake-api/internal/model"
	"github.com/clinicore/intake-api/internal/service/clinic"
	"github.com/clinicore/intake-api/pkg/httputil"
)

type Handler struct {
	service *clinic.Service
}

func NewHandler(service *clinic.Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes exposes clinic lookup so the intake form can show
// clinic details without a login. The same route serves authenticated
// callers, so it is not repeated in RegisterRoutes.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/clinics/:id", h.Get)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	clinics := r.Group("/clinics")
	{
		clinics.POST("", h.Create)
		clinics.GET("", h.List)
		clinics.PUT("/:id", h.Update)
	}
}

func (h *Handler) Create(c *gin.Context) {
	principal, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateClinicRequest
	if err := handler.Bind(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	created, err := h.service.CreateClinic(c.Request.Context(), principal, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := handler.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	clinicRecord, err := h.service.GetClinic(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, clinicRecord)
}

func (h *Handler) Update(c *gin.Context) {
	principal, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	id, err := handler.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateClinicRequest
	if err := handler.Bind(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	updated, err := h.service.UpdateClinic(c.Request.Context(), principal, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) List(c *gin.Context) {
	principal, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	clinics, err := h.service.ListClinics(c.Request.Context(), principal)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, clinics)
}
