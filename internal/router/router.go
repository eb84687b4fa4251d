package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-console/internal/middleware"
	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	authH   Handler
	adminH  Handler
	doctorH Handler
	healthH Handler
}

type RouterConfig struct {
	Mode           string
	RequestTimeout time.Duration
	MaxBodySize    int64
	CORSConfig     middleware.CORSConfig
	Security       middleware.SecurityConfig
	TrustedProxies []string
}

type Handlers struct {
	Auth   Handler
	Admin  Handler
	Doctor Handler
	Health Handler
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	handlers Handlers,
	m *metrics.Metrics,
	logger zerolog.Logger,
	config RouterConfig,
) (*Router, error) {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(config.TrustedProxies); err != nil {
		return nil, err
	}

	r := &Router{
		engine:  engine,
		auth:    auth,
		authH:   handlers.Auth,
		adminH:  handlers.Admin,
		doctorH: handlers.Doctor,
		healthH: handlers.Health,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(),
		middleware.Metrics(m),
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(config.Security),
	)
	if config.RequestTimeout > 0 {
		engine.Use(middleware.Timeout(config.RequestTimeout))
	}
	if config.MaxBodySize > 0 {
		engine.Use(middleware.SizeLimit(config.MaxBodySize))
	}

	return r, nil
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)
	r.authH.RegisterRoutes(api)

	admin := api.Group("/admin", r.auth.RequireRole(model.RoleAdmin))
	r.adminH.RegisterRoutes(admin)

	doctor := api.Group("/doctor", r.auth.RequireRole(model.RoleDoctor))
	r.doctorH.RegisterRoutes(doctor)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
