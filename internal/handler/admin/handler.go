package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-console/internal/handler"
	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/service/admin"
	"github.com/jwalitptl/clinic-console/pkg/httputil"
)

type Handler struct {
	svc *admin.Service
}

func NewHandler(svc *admin.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes expects r to admit admin sessions only.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard", h.Dashboard)

	doctors := r.Group("/doctors")
	{
		doctors.GET("", h.ListDoctors)
		doctors.POST("", h.CreateDoctor)
		doctors.PATCH("/:id/availability", h.SetAvailability)
	}

	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.ListAppointments)
		appointments.POST("", h.CreateAppointment)
	}
}

func (h *Handler) Dashboard(c *gin.Context) {
	dash, err := h.svc.Dashboard(c.Request.Context(), handler.Subject(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, dash)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.svc.ListDoctors(c.Request.Context(), handler.Subject(c), handler.Refresh(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctors)
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var doctor model.Doctor
	if !handler.BindJSON(c, &doctor) {
		return
	}

	created, err := h.svc.CreateDoctor(c.Request.Context(), handler.Subject(c), &doctor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusCreated, admin.MsgDoctorAdded, created)
}

func (h *Handler) SetAvailability(c *gin.Context) {
	var req model.AvailabilityRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	doctor, err := h.svc.SetAvailability(c.Request.Context(), handler.Subject(c), handler.ID(c, "id"), *req.Available)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, admin.MsgAvailabilityUpdated, doctor)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	appointments, err := h.svc.ListAppointments(c.Request.Context(), handler.Subject(c), handler.Refresh(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var appointment model.Appointment
	if !handler.BindJSON(c, &appointment) {
		return
	}

	created, err := h.svc.CreateAppointment(c.Request.Context(), handler.Subject(c), &appointment)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusCreated, admin.MsgAppointmentAdded, created)
}
