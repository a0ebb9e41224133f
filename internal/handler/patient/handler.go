package patient

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/intake-api/internal/handler"
	"github.com/clinicore/intake-api/internal/model"
	"github.com/clinicore/intake-api/internal/service/authz"
	"github.com/clinicore/intake-api/internal/service/patient"
	"github.com/clinicore/intake-api/pkg/httputil"
)

// Handler enforces clinic scope here because the patient service itself is
// principal-agnostic (the public intake path calls it too).
type Handler struct {
	service *patient.Service
	guard   *authz.Service
}

func NewHandler(service *patient.Service, guard *authz.Service) *Handler {
	return &Handler{service: service, guard: guard}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.Create)
		patients.GET("", h.List)
		patients.GET("/:id", h.Get)
		patients.PUT("/:id", h.Update)
	}
}

func (h *Handler) Create(c *gin.Context) {
	principal, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreatePatientRequest
	if err := handler.Bind(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if err := h.guard.Authorize(principal, &req.ClinicID, model.RoleStaff); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p, err := h.service.CreatePatient(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, p)
}

func (h *Handler) Get(c *gin.Context) {
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

	p, err := h.service.GetPatient(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if err := h.guard.Authorize(principal, &p.ClinicID, model.RoleStaff); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
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

	existing, err := h.service.GetPatient(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if err := h.guard.Authorize(principal, &existing.ClinicID, model.RoleStaff); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdatePatientRequest
	if err := handler.Bind(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p, err := h.service.UpdatePatient(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) List(c *gin.Context) {
	principal, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	filters := &model.PatientFilters{
		SearchTerm: c.Query("search"),
	}
	if c.Query("clinicId") != "" {
		clinicID, err := handler.UUIDQuery(c, "clinicId")
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		filters.ClinicID = clinicID
	}
	if filters.ClinicID == uuid.Nil && principal.ClinicID != nil {
		filters.ClinicID = *principal.ClinicID
	}
	if err := h.guard.Authorize(principal, &filters.ClinicID, model.RoleStaff); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	patients, err := h.service.ListPatients(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}
