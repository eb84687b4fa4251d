package doctor

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-console/internal/middleware"
	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/repository/rest"
	"github.com/jwalitptl/clinic-console/internal/repository/rest/resttest"
	"github.com/jwalitptl/clinic-console/internal/service/auth"
	"github.com/jwalitptl/clinic-console/internal/service/calendar"
	"github.com/jwalitptl/clinic-console/internal/service/doctor"
	"github.com/jwalitptl/clinic-console/internal/service/history"
	"github.com/jwalitptl/clinic-console/pkg/validator"
)

func setup(t *testing.T) (*gin.Engine, *resttest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.RegisterBinding())

	srv := resttest.NewServer(t)
	srv.Seed(rest.CollectionDoctors, model.Doctor{ID: "d1", Name: "Dr. Rao", Email: "rao@clinic.in", Password: "secret"})
	srv.Seed(rest.CollectionPatients, model.Patient{ID: "p1", Name: "Asha", Email: "asha@example.com"})
	srv.Seed(rest.CollectionAppointments,
		model.Appointment{ID: "1", DoctorID: "d1", PatientName: "Asha", PatientEmail: "asha@example.com", Datetime: "15/06/2025 at 10:00 am", AppStatus: model.AppointmentStatusPending},
		model.Appointment{ID: "2", DoctorID: "d2", PatientName: "Ravi", Datetime: "15/06/2025 at 11:00 am"},
		model.Appointment{ID: "3", DoctorID: "d1", PatientName: "Meera", Datetime: "16/06/2025 at 9:00 am", PatientImage: "blob:http://localhost/x"},
	)

	client := rest.NewClient(rest.Config{BaseURL: srv.URL}, nil)
	appointments := rest.NewAppointmentRepository(client)
	svc := doctor.NewService(
		rest.NewDoctorRepository(client),
		appointments,
		rest.NewPrescriptionRepository(client),
		rest.NewReviewRepository(client),
		doctor.Config{SessionTTL: time.Hour, Location: time.UTC},
	)
	h := NewHandler(svc, calendar.NewService(svc, nil), history.NewService(rest.NewPatientRepository(client), appointments, time.UTC))

	engine := gin.New()
	group := engine.Group("/api/v1/doctor", func(c *gin.Context) {
		c.Set(middleware.ContextSession, &auth.Session{Role: model.RoleDoctor, Subject: "d1"})
	})
	h.RegisterRoutes(group)
	return engine, srv
}

func do(engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Notices []string        `json:"notices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestAppointmentsArePresentedForTheDoctor(t *testing.T) {
	engine, _ := setup(t)

	w := do(engine, http.MethodGet, "/api/v1/doctor/appointments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.Appointment
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, model.ID("3"), list[0].ID)
	assert.Equal(t, model.PlaceholderImage, list[0].PatientImage)
}

func TestUpdateStatus(t *testing.T) {
	engine, srv := setup(t)

	w := do(engine, http.MethodPatch, "/api/v1/doctor/appointments/1/status", model.StatusRequest{Status: "Completed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Appointment Completed", decode(t, w).Message)
	assert.Equal(t, "Completed", srv.Find(rest.CollectionAppointments, "1")["appstatus"])

	w = do(engine, http.MethodPatch, "/api/v1/doctor/appointments/2/status", model.StatusRequest{Status: "Completed"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(engine, http.MethodPatch, "/api/v1/doctor/appointments/1/status", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "status is required", decode(t, w).Error.Message)
}

func TestCancel(t *testing.T) {
	engine, srv := setup(t)

	w := do(engine, http.MethodDelete, "/api/v1/doctor/appointments/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, doctor.MsgAppointmentCancelled, decode(t, w).Message)
	assert.Nil(t, srv.Find(rest.CollectionAppointments, "1"))
}

func TestCalendarMove(t *testing.T) {
	engine, srv := setup(t)

	w := do(engine, http.MethodGet, "/api/v1/doctor/calendar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var board calendar.Board
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &board))
	assert.Len(t, board.Events, 2)

	w = do(engine, http.MethodPost, "/api/v1/doctor/calendar/3/move", model.MoveRequest{Start: time.Date(2025, time.June, 17, 15, 30, 0, 0, time.UTC)})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, doctor.MsgRescheduled, decode(t, w).Message)
	assert.Equal(t, "17/06/2025 at 3:30 pm", srv.Find(rest.CollectionAppointments, "3")["datetime"])
}

func TestPrescribeValidatesLines(t *testing.T) {
	engine, srv := setup(t)

	w := do(engine, http.MethodPost, "/api/v1/doctor/appointments/1/prescribe", gin.H{"prescriptions": []gin.H{{"dosage": "5ml"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "prescriptions[0].medicine is required", decode(t, w).Error.Message)

	w = do(engine, http.MethodPost, "/api/v1/doctor/appointments/1/prescribe", model.PrescribeRequest{
		Prescriptions: []model.PrescriptionLine{{Medicine: "Paracetamol", Dosage: "500mg"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, srv.Records(rest.CollectionPrescriptions), 1)

	w = do(engine, http.MethodGet, "/api/v1/doctor/prescriptions?q=para", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var board doctor.Board
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &board))
	assert.Len(t, board.Prescriptions, 1)
	assert.Equal(t, []string{"Asha"}, board.Patients)
}

func TestMedicalHistory(t *testing.T) {
	engine, _ := setup(t)

	w := do(engine, http.MethodGet, "/api/v1/doctor/medical-history?email=asha@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report history.Report
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &report))
	assert.Equal(t, "Asha", report.Patient.Name)
	assert.Equal(t, 1, report.TotalAppointments)

	w = do(engine, http.MethodGet, "/api/v1/doctor/medical-history?email=nobody@example.com", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Patient not found", decode(t, w).Error.Message)

	w = do(engine, http.MethodGet, "/api/v1/doctor/medical-history", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(engine, http.MethodGet, "/api/v1/doctor/medical-history/print?email=asha@example.com&format=pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestProfile(t *testing.T) {
	engine, srv := setup(t)

	w := do(engine, http.MethodPut, "/api/v1/doctor/profile", gin.H{"name": "Dr. Rao", "email": "rao@clinic.in", "about": "Cardiologist"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, doctor.MsgProfileUpdated, decode(t, w).Message)
	assert.Equal(t, "secret", srv.Find(rest.CollectionDoctors, "d1")["password"])

	w = do(engine, http.MethodGet, "/api/v1/doctor/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")
	assert.Contains(t, w.Body.String(), "Cardiologist")
}
