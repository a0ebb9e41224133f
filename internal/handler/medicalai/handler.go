// Package medicalai exposes the decision-support operations over HTTP. The
// client never fails these requests: degraded AI output arrives as a 200
// with the fallback payload.
package medicalai

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/clinicore/intake-api/internal/handler"
	"github.com/clinicore/intake-api/internal/model"
	"github.com/clinicore/intake-api/internal/service/aidecision"
	"github.com/clinicore/intake-api/pkg/httputil"
)

type VisitRequest struct {
	PurposeOfVisit string             `json:"purposeOfVisit" binding:"required"`
	Symptoms       string             `json:"symptoms" binding:"required"`
	FollowUp       []model.FollowUpQA `json:"followUpQAPairs"`
}

// decisionClient is the slice of the AI client these handlers call.
type decisionClient interface {
	TopQuestions(ctx context.Context, purposeOfVisit, symptoms string) aidecision.TopQuestionsResponse
	Recommendations(ctx context.Context, purposeOfVisit, symptoms string, pairs []model.FollowUpQA) aidecision.RecommendationsResponse
	WaitingInstructions(ctx context.Context, purposeOfVisit, symptoms string, pairs []model.FollowUpQA) aidecision.WaitingInstructionsResponse
}

type Handler struct {
	client decisionClient
}

func NewHandler(client decisionClient) *Handler {
	return &Handler{client: client}
}

// RegisterPublicRoutes mounts the operations the intake form needs before
// any staff member is involved.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	ai := r.Group("/medical-ai")
	{
		ai.POST("/topquestions", h.TopQuestions)
		ai.POST("/waitinginstructions", h.WaitingInstructions)
	}
}

// RegisterRoutes mounts the staff-only operations.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	ai := r.Group("/medical-ai")
	{
		ai.POST("/recommendations", h.Recommendations)
	}
}

func (h *Handler) TopQuestions(c *gin.Context) {
	var req VisitRequest
	if err := handler.Bind(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	resp := h.client.TopQuestions(c.Request.Context(), req.PurposeOfVisit, req.Symptoms)
	httputil.RespondWithSuccess(c, resp)
}

func (h *Handler) WaitingInstructions(c *gin.Context) {
	var req VisitRequest
	if err := handler.Bind(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	resp := h.client.WaitingInstructions(c.Request.Context(), req.PurposeOfVisit, req.Symptoms, req.FollowUp)
	httputil.RespondWithSuccess(c, resp)
}

func (h *Handler) Recommendations(c *gin.Context) {
	var req VisitRequest
	if err := handler.Bind(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	resp := h.client.Recommendations(c.Request.Context(), req.PurposeOfVisit, req.Symptoms, req.FollowUp)
	httputil.RespondWithSuccess(c, resp)
}
