package admin

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/repository/rest"
	"github.com/jwalitptl/clinic-console/internal/repository/rest/resttest"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
)

const adminID = model.ID("a1")

func setup(t *testing.T) (*Service, *resttest.Server) {
	t.Helper()
	srv := resttest.NewServer(t)
	srv.Seed(rest.CollectionDoctors,
		model.Doctor{ID: "d1", Name: "Dr. Rao", Email: "rao@clinic.in", Password: "pw", Available: true},
		model.Doctor{ID: "d2", Name: "Dr. Iyer", Email: "iyer@clinic.in", Password: "pw"},
	)
	srv.Seed(rest.CollectionAppointments,
		model.Appointment{ID: "1", DoctorID: "d1", PatientName: "Asha", Status: "Paid", PaymentMethod: "UPI"},
		model.Appointment{ID: "2", DoctorID: "d2", PatientName: "Ravi"},
	)

	client := rest.NewClient(rest.Config{BaseURL: srv.URL}, nil)
	return NewService(rest.NewDoctorRepository(client), rest.NewAppointmentRepository(client), time.Hour), srv
}

func TestPrimeLoadsBothCollections(t *testing.T) {
	svc, srv := setup(t)
	ctx := context.Background()

	assert.Empty(t, svc.Prime(ctx, adminID))
	assert.Equal(t, 1, srv.Hits(http.MethodGet, rest.CollectionDoctors))
	assert.Equal(t, 1, srv.Hits(http.MethodGet, rest.CollectionAppointments))

	doctors, err := svc.ListDoctors(ctx, adminID, false)
	require.NoError(t, err)
	assert.Len(t, doctors, 2)
	assert.Empty(t, doctors[0].Password)
	assert.Equal(t, 1, srv.Hits(http.MethodGet, rest.CollectionDoctors))

	_, err = svc.ListDoctors(ctx, adminID, true)
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Hits(http.MethodGet, rest.CollectionDoctors))
}

func TestPrimeReportsEachFailure(t *testing.T) {
	svc, srv := setup(t)
	srv.FailNext(http.MethodGet, rest.CollectionAppointments, http.StatusInternalServerError)

	notices := svc.Prime(context.Background(), adminID)
	assert.Equal(t, []string{MsgLoadAppointmentsFailed}, notices)
}

func TestCreateDoctorAppendsStoredRecord(t *testing.T) {
	svc, srv := setup(t)
	ctx := context.Background()
	svc.Prime(ctx, adminID)

	created, err := svc.CreateDoctor(ctx, adminID, &model.Doctor{Name: "Dr. Menon", Email: "menon@clinic.in", Password: "pw"})
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	assert.Empty(t, created.Password)

	doctors, err := svc.ListDoctors(ctx, adminID, false)
	require.NoError(t, err)
	require.Len(t, doctors, 3)
	assert.Equal(t, created.ID, doctors[2].ID)
	assert.Len(t, srv.Records(rest.CollectionDoctors), 3)
}

func TestCreateDoctorFailureLeavesCache(t *testing.T) {
	svc, srv := setup(t)
	ctx := context.Background()
	svc.Prime(ctx, adminID)
	srv.FailNext(http.MethodPost, rest.CollectionDoctors, http.StatusInternalServerError)

	_, err := svc.CreateDoctor(ctx, adminID, &model.Doctor{Name: "Dr. Menon"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, MsgAddDoctorFailed, appErr.Message)

	doctors, _ := svc.ListDoctors(ctx, adminID, false)
	assert.Len(t, doctors, 2)
}

func TestSetAvailabilityUpdatesCache(t *testing.T) {
	svc, srv := setup(t)
	ctx := context.Background()
	svc.Prime(ctx, adminID)

	stored, err := svc.SetAvailability(ctx, adminID, "d2", true)
	require.NoError(t, err)
	assert.True(t, stored.Available)
	assert.Equal(t, true, srv.Find(rest.CollectionDoctors, "d2")["available"])

	doctors, _ := svc.ListDoctors(ctx, adminID, false)
	assert.True(t, doctors[1].Available)
	assert.Equal(t, 1, srv.Hits(http.MethodGet, rest.CollectionDoctors))

	_, err = svc.SetAvailability(ctx, adminID, "missing", true)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestAppointmentsCarryPaymentStatus(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	views, err := svc.ListAppointments(ctx, adminID, false)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Paid", views[0].PaymentStatus)
	assert.True(t, views[0].Paid)
	assert.Equal(t, "Unpaid", views[1].PaymentStatus)

	created, err := svc.CreateAppointment(ctx, adminID, &model.Appointment{DoctorID: "d1", PatientName: "Meera", Datetime: "15/06/2025 at 10:00 am"})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, created.AppStatus)

	dash, err := svc.Dashboard(ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, &Dashboard{Doctors: 2, Appointments: 3}, dash)
}

func TestForgetDropsState(t *testing.T) {
	svc, srv := setup(t)
	ctx := context.Background()
	svc.Prime(ctx, adminID)

	svc.Forget(adminID)
	_, err := svc.ListDoctors(ctx, adminID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Hits(http.MethodGet, rest.CollectionDoctors))
}
