package doctor

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-console/internal/handler"
	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/service/calendar"
	"github.com/jwalitptl/clinic-console/internal/service/doctor"
	"github.com/jwalitptl/clinic-console/internal/service/history"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
	"github.com/jwalitptl/clinic-console/pkg/httputil"
)

type Handler struct {
	svc      *doctor.Service
	calendar *calendar.Service
	history  *history.Service
}

func NewHandler(svc *doctor.Service, cal *calendar.Service, hist *history.Service) *Handler {
	return &Handler{svc: svc, calendar: cal, history: hist}
}

// RegisterRoutes expects r to admit doctor sessions only.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard", h.Dashboard)
	r.GET("/profile", h.Profile)
	r.PUT("/profile", h.UpdateProfile)
	r.GET("/reviews", h.Reviews)

	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.Appointments)
		appointments.PATCH("/:id/status", h.UpdateStatus)
		appointments.PATCH("/:id/notes", h.UpdateNotes)
		appointments.PUT("/:id/prescription", h.AttachPrescription)
		appointments.POST("/:id/prescribe", h.Prescribe)
		appointments.DELETE("/:id", h.Cancel)
	}

	cal := r.Group("/calendar")
	{
		cal.GET("", h.Calendar)
		cal.POST("/:id/move", h.Move)
	}

	prescriptions := r.Group("/prescriptions")
	{
		prescriptions.GET("", h.Prescriptions)
		prescriptions.POST("", h.CreatePrescription)
		prescriptions.PUT("/:id", h.EditPrescription)
		prescriptions.DELETE("/:id", h.DeletePrescription)
	}

	hist := r.Group("/medical-history")
	{
		hist.GET("", h.MedicalHistory)
		hist.GET("/print", h.PrintMedicalHistory)
	}
}

func (h *Handler) Dashboard(c *gin.Context) {
	dash, err := h.svc.Dashboard(c.Request.Context(), handler.Subject(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, "", dash, dash.Notices...)
}

func (h *Handler) Profile(c *gin.Context) {
	profile, err := h.svc.Profile(c.Request.Context(), handler.Subject(c), handler.Refresh(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profile)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var profile model.Doctor
	if !handler.BindJSON(c, &profile) {
		return
	}

	updated, err := h.svc.UpdateProfile(c.Request.Context(), handler.Subject(c), profile)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, doctor.MsgProfileUpdated, updated)
}

func (h *Handler) Reviews(c *gin.Context) {
	reviews, err := h.svc.Reviews(c.Request.Context(), handler.Subject(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, reviews)
}

func (h *Handler) Appointments(c *gin.Context) {
	appointments, err := h.svc.Appointments(c.Request.Context(), handler.Subject(c), handler.Refresh(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, doctor.Present(appointments))
}

// respondAppointments renders a write result with the list ready for display.
func respondAppointments(c *gin.Context, message string, res *doctor.AppointmentResult) {
	res.Appointments = doctor.Present(res.Appointments)
	httputil.RespondWithMessage(c, http.StatusOK, message, res, res.Notices...)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req model.StatusRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	res, status, err := h.svc.UpdateStatus(c.Request.Context(), handler.Subject(c), handler.ID(c, "id"), req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	respondAppointments(c, doctor.StatusMessage(status), res)
}

func (h *Handler) UpdateNotes(c *gin.Context) {
	var req model.NotesRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	res, err := h.svc.UpdateNotes(c.Request.Context(), handler.Subject(c), handler.ID(c, "id"), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	respondAppointments(c, doctor.MsgNotesSaved, res)
}

func (h *Handler) AttachPrescription(c *gin.Context) {
	var req model.AttachPrescriptionRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	res, err := h.svc.AttachPrescription(c.Request.Context(), handler.Subject(c), handler.ID(c, "id"), req.Lines)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	respondAppointments(c, doctor.MsgPrescriptionSaved, res)
}

func (h *Handler) Prescribe(c *gin.Context) {
	var req model.PrescribeRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	res, err := h.svc.Prescribe(c.Request.Context(), handler.Subject(c), handler.ID(c, "id"), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	respondAppointments(c, doctor.MsgPrescriptionSaved, res)
}

func (h *Handler) Cancel(c *gin.Context) {
	res, err := h.svc.Cancel(c.Request.Context(), handler.Subject(c), handler.ID(c, "id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	respondAppointments(c, doctor.MsgAppointmentCancelled, res)
}

func (h *Handler) Calendar(c *gin.Context) {
	board, err := h.calendar.Board(c.Request.Context(), handler.Subject(c), handler.Refresh(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, board)
}

func (h *Handler) Move(c *gin.Context) {
	var req model.MoveRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	res, err := h.calendar.Move(c.Request.Context(), handler.Subject(c), handler.ID(c, "id"), req.Start)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	respondAppointments(c, doctor.MsgRescheduled, res)
}

func (h *Handler) Prescriptions(c *gin.Context) {
	var q doctor.Query
	if !handler.BindQuery(c, &q) {
		return
	}

	board, err := h.svc.Prescriptions(c.Request.Context(), handler.Subject(c), q, handler.Refresh(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, board)
}

func (h *Handler) CreatePrescription(c *gin.Context) {
	var p model.Prescription
	if !handler.BindJSON(c, &p) {
		return
	}

	res, err := h.svc.CreatePrescription(c.Request.Context(), handler.Subject(c), p)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusCreated, doctor.MsgPrescriptionAdded, res, res.Notices...)
}

func (h *Handler) EditPrescription(c *gin.Context) {
	var p model.Prescription
	if !handler.BindJSON(c, &p) {
		return
	}

	res, err := h.svc.EditPrescription(c.Request.Context(), handler.Subject(c), handler.ID(c, "id"), p)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, doctor.MsgPrescriptionUpdated, res, res.Notices...)
}

func (h *Handler) DeletePrescription(c *gin.Context) {
	res, err := h.svc.DeletePrescription(c.Request.Context(), handler.Subject(c), handler.ID(c, "id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, doctor.MsgPrescriptionDeleted, res, res.Notices...)
}

func (h *Handler) report(c *gin.Context) (*history.Report, bool) {
	var q history.Query
	if !handler.BindQuery(c, &q) {
		return nil, false
	}
	report, err := h.history.Report(c.Request.Context(), q)
	if err != nil {
		httputil.RespondWithError(c, err)
		return nil, false
	}
	return report, true
}

func (h *Handler) MedicalHistory(c *gin.Context) {
	report, ok := h.report(c)
	if !ok {
		return
	}
	httputil.RespondWithSuccess(c, report)
}

// PrintMedicalHistory serves the print view as JSON, or as a PDF when
// format=pdf or the client accepts application/pdf.
func (h *Handler) PrintMedicalHistory(c *gin.Context) {
	report, ok := h.report(c)
	if !ok {
		return
	}
	view := history.NewPrintView(report)

	if c.Query("format") != "pdf" && !strings.Contains(c.GetHeader("Accept"), "application/pdf") {
		httputil.RespondWithSuccess(c, view)
		return
	}

	var buf bytes.Buffer
	if err := history.RenderPDF(&buf, view); err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="medical-history-%s.pdf"`, report.Patient.ID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
