package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/clinicore/intake-api/internal/handler"
	appointmenthandler "github.com/clinicore/intake-api/internal/handler/appointment"
	clinichandler "github.com/clinicore/intake-api/internal/handler/clinic"
	"github.com/clinicore/intake-api/internal/handler/medicalai"
	"github.com/clinicore/intake-api/internal/middleware"
	"github.com/clinicore/intake-api/internal/model"
	"github.com/clinicore/intake-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	PublicRateLimit rate.Limit
	PublicRateBurst int
	CORSConfig      middleware.CORSConfig
}

// Router wires middleware and handlers onto one gin engine. The public
// group is rate limited per IP; everything else sits behind authentication.
type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	cfg          Config
	h            *handler.Handler
	authH        Handler
	appointmentH *appointmenthandler.Handler
	patientH     Handler
	clinicH      *clinichandler.Handler
	userH        Handler
	medicalAIH   *medicalai.Handler
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	h *handler.Handler,
	authH Handler,
	appointmentH *appointmenthandler.Handler,
	patientH Handler,
	clinicH *clinichandler.Handler,
	userH Handler,
	medicalAIH *medicalai.Handler,
	m *metrics.Metrics,
	cfg Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(m),
		middleware.CORS(cfg.CORSConfig),
	)

	return &Router{
		engine:       engine,
		auth:         auth,
		cfg:          cfg,
		h:            h,
		authH:        authH,
		appointmentH: appointmentH,
		patientH:     patientH,
		clinicH:      clinicH,
		userH:        userH,
		medicalAIH:   medicalAIH,
	}
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	health := api.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
	}
	api.GET("/metrics", r.h.MetricsHandler)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  r.cfg.PublicRateLimit,
		Burst: r.cfg.PublicRateBurst,
	})

	public := api.Group("")
	public.Use(rateLimiter.RateLimit())
	{
		r.authH.RegisterRoutes(public)
		r.medicalAIH.RegisterPublicRoutes(public)
		r.clinicH.RegisterPublicRoutes(public)
		r.appointmentH.RegisterPublicRoutes(public.Group("/public"))
	}

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	{
		r.appointmentH.RegisterRoutes(protected)
		r.patientH.RegisterRoutes(protected)
		r.userH.RegisterRoutes(protected)
		r.medicalAIH.RegisterRoutes(protected)

		// Every protected clinic operation is admin-or-above; staff are
		// cut off here before the service-level scope checks.
		admin := protected.Group("", r.auth.RequireRole(model.RoleClinicAdmin))
		r.clinicH.RegisterRoutes(admin)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
