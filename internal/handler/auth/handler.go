package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-console/internal/handler"
	"github.com/jwalitptl/clinic-console/internal/middleware"
	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/service/auth"
	"github.com/jwalitptl/clinic-console/internal/service/shell"
	"github.com/jwalitptl/clinic-console/pkg/httputil"
)

// CookieConfig controls the session marker cookies.
type CookieConfig struct {
	Domain string
	Secure bool
	MaxAge time.Duration
}

type Handler struct {
	svc     *auth.Service
	shell   *shell.Service
	cookies CookieConfig
	// login runs before the login handler, typically a rate limiter.
	login []gin.HandlerFunc
}

func NewHandler(svc *auth.Service, shellSvc *shell.Service, cookies CookieConfig, login ...gin.HandlerFunc) *Handler {
	return &Handler{svc: svc, shell: shellSvc, cookies: cookies, login: login}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", append(h.login, h.Login)...)
		auth.POST("/logout", h.Logout)
	}
	r.GET("/shell", h.Shell)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.setCookie(c, res.Role.CookieName(), res.Token, int(h.cookies.MaxAge.Seconds()))
	httputil.RespondWithMessage(c, http.StatusOK, res.Message, res, res.Notices...)
}

// Logout ends every presented session and clears both markers.
func (h *Handler) Logout(c *gin.Context) {
	presented := middleware.Tokens(c)
	tokens := make([]string, 0, len(presented))
	for _, token := range presented {
		tokens = append(tokens, token)
	}

	res := h.svc.Logout(c.Request.Context(), tokens)
	for _, role := range []model.Role{model.RoleAdmin, model.RoleDoctor} {
		h.setCookie(c, role.CookieName(), "", -1)
	}
	httputil.RespondWithMessage(c, http.StatusOK, auth.MsgLoggedOut, res)
}

// Shell resolves the presented session markers to the layout to render.
func (h *Handler) Shell(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	httputil.RespondWithSuccess(c, h.shell.Layout(c.Request.Context(), middleware.Tokens(c)))
}

func (h *Handler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", h.cookies.Domain, h.cookies.Secure, true)
}
