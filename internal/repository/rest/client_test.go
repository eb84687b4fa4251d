package rest

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/repository"
	"github.com/jwalitptl/clinic-console/internal/repository/rest/resttest"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
)

func newClient(t *testing.T) (*Client, *resttest.Server, *metrics.Metrics) {
	t.Helper()
	srv := resttest.NewServer(t)
	m := metrics.NewMetrics(prometheus.NewRegistry(), "test")
	return NewClient(Config{BaseURL: srv.URL + "/", BreakerFailures: 3}, m), srv, m
}

func TestListSendsEqualityFilters(t *testing.T) {
	c, srv, m := newClient(t)
	srv.Seed(CollectionAppointments,
		model.Appointment{ID: "1", DoctorID: "d1", PatientName: "Asha"},
		model.Appointment{ID: "2", DoctorID: "d2", PatientName: "Ravi"},
		resttest.Record{"id": 3, "doctorId": "d1", "patientName": "Meera"},
	)
	repo := NewAppointmentRepository(c)

	got, err := repo.List(context.Background(), repository.Filter{repository.FieldDoctorID: "d1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.ID("1"), got[0].ID)
	assert.Equal(t, model.ID("3"), got[1].ID)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatastoreRequests.WithLabelValues(CollectionAppointments, http.MethodGet, "200")))
}

func TestCrudRoundTrip(t *testing.T) {
	c, srv, _ := newClient(t)
	repo := NewDoctorRepository(c)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.Doctor{Name: "Dr. Rao", Email: "rao@clinic.in", Password: "pw"})
	require.NoError(t, err)
	require.False(t, created.ID.IsZero())

	updated, err := repo.SetAvailability(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Available)
	assert.Equal(t, "Dr. Rao", updated.Name)

	updated.Speciality = "Cardiology"
	replaced, err := repo.Replace(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", replaced.Speciality)

	fetched, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", fetched.Speciality)
	assert.Equal(t, 1, srv.Hits(http.MethodPut, CollectionDoctors+"/:id"))
}

func TestErrors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		c, _, _ := newClient(t)
		_, err := NewDoctorRepository(c).Get(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("status", func(t *testing.T) {
		c, srv, _ := newClient(t)
		srv.FailNext(http.MethodPost, CollectionDoctors, http.StatusUnprocessableEntity)

		_, err := NewDoctorRepository(c).Create(context.Background(), &model.Doctor{Name: "x"})
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusUnprocessableEntity, se.Code)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := resttest.NewServer(t)
		srv.Close()
		c := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second}, nil)

		_, err := NewReviewRepository(c).List(context.Background(), nil)
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
	})
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	c, srv, _ := newClient(t)
	repo := NewPatientRepository(c)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		srv.FailNext(http.MethodGet, CollectionPatients, http.StatusInternalServerError)
		_, err := repo.List(ctx, nil)
		require.Error(t, err)
	}

	_, err := repo.List(ctx, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, srv.Hits(http.MethodGet, CollectionPatients))
	assert.ErrorIs(t, c.Ping(ctx), ErrUnavailable)
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	c, _, _ := newClient(t)
	repo := NewAppointmentRepository(c)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.Get(ctx, "nope")
		require.ErrorIs(t, err, ErrNotFound)
	}
	require.NoError(t, c.Ping(ctx))
}
