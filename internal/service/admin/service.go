// Package admin is the clinic admin's console state: the doctor roster and
// every appointment, cached per admin session.
package admin

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/repository"
	"github.com/jwalitptl/clinic-console/internal/state"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
)

// User-facing messages.
const (
	MsgLoadDoctorsFailed      = "Failed to load doctors"
	MsgDoctorAdded            = "Doctor added"
	MsgAddDoctorFailed        = "Error adding doctor"
	MsgLoadAppointmentsFailed = "Failed to load appointments"
	MsgAppointmentAdded       = "Appointment added"
	MsgAddAppointmentFailed   = "Error adding appointment"
	MsgAvailabilityUpdated    = "Availability updated"
	MsgAvailabilityFailed     = "Failed to update availability"
)

// State is one admin session's cache.
type State struct {
	Doctors      state.List[model.Doctor]
	Appointments state.List[model.Appointment]
}

// AppointmentView adds the payment status as the console shows it.
type AppointmentView struct {
	model.Appointment
	PaymentStatus string `json:"paymentStatus"`
	Paid          bool   `json:"paid"`
}

type Dashboard struct {
	Doctors      int `json:"doctors"`
	Appointments int `json:"appointments"`
}

type Service struct {
	doctors      repository.DoctorRepository
	appointments repository.AppointmentRepository
	sessions     *state.Registry[State]
}

func NewService(doctors repository.DoctorRepository, appointments repository.AppointmentRepository, sessionTTL time.Duration) *Service {
	return &Service{
		doctors:      doctors,
		appointments: appointments,
		sessions:     state.NewRegistry(sessionTTL, func() *State { return &State{} }),
	}
}

// Prime loads the roster and the appointments independently. Each failure
// becomes one notice.
func (s *Service) Prime(ctx context.Context, subject model.ID) []string {
	st := s.sessions.Get(subject.String())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		notices []string
	)
	note := func(err error) {
		if appErr, ok := apperrors.As(err); ok {
			mu.Lock()
			notices = append(notices, appErr.Message)
			mu.Unlock()
		}
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := s.fetchDoctors(ctx, st)
		note(err)
	}()
	go func() {
		defer wg.Done()
		_, err := s.fetchAppointments(ctx, st)
		note(err)
	}()
	wg.Wait()

	return notices
}

func (s *Service) Forget(subject model.ID) {
	s.sessions.Drop(subject.String())
}

// ListDoctors serves the cached roster, fetching it when absent or refresh is set.
func (s *Service) ListDoctors(ctx context.Context, subject model.ID, refresh bool) ([]model.Doctor, error) {
	st := s.sessions.Get(subject.String())
	if !refresh {
		if doctors, ok := st.Doctors.Snapshot(); ok {
			return sanitize(doctors), nil
		}
	}
	doctors, err := s.fetchDoctors(ctx, st)
	if err != nil {
		return nil, err
	}
	return sanitize(doctors), nil
}

func (s *Service) fetchDoctors(ctx context.Context, st *State) ([]model.Doctor, error) {
	ticket := st.Doctors.Begin()
	doctors, err := s.doctors.List(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to load doctors")
		return nil, apperrors.Upstream(MsgLoadDoctorsFailed, err)
	}
	st.Doctors.Commit(ticket, doctors)
	current, _ := st.Doctors.Snapshot()
	return current, nil
}

// CreateDoctor stores a new doctor and appends the stored record to the cache.
func (s *Service) CreateDoctor(ctx context.Context, subject model.ID, doctor *model.Doctor) (*model.Doctor, error) {
	doctor.ID = ""
	created, err := s.doctors.Create(ctx, doctor)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to add doctor")
		return nil, apperrors.Upstream(MsgAddDoctorFailed, err)
	}
	s.sessions.Get(subject.String()).Doctors.Append(*created)

	out := created.Sanitized()
	return &out, nil
}

// SetAvailability patches the availability flag and applies the stored
// record to the cache.
func (s *Service) SetAvailability(ctx context.Context, subject, doctorID model.ID, available bool) (*model.Doctor, error) {
	stored, err := s.doctors.SetAvailability(ctx, doctorID, available)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("doctor_id", doctorID.String()).Msg("failed to update availability")
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Doctor", err)
		}
		return nil, apperrors.Upstream(MsgAvailabilityFailed, err)
	}

	st := s.sessions.Get(subject.String())
	st.Doctors.Replace(func(d model.Doctor) bool { return d.ID == doctorID }, *stored)

	out := stored.Sanitized()
	return &out, nil
}

// ListAppointments serves the cached appointments, fetching them when
// absent or refresh is set.
func (s *Service) ListAppointments(ctx context.Context, subject model.ID, refresh bool) ([]AppointmentView, error) {
	st := s.sessions.Get(subject.String())
	if !refresh {
		if appointments, ok := st.Appointments.Snapshot(); ok {
			return views(appointments), nil
		}
	}
	appointments, err := s.fetchAppointments(ctx, st)
	if err != nil {
		return nil, err
	}
	return views(appointments), nil
}

func (s *Service) fetchAppointments(ctx context.Context, st *State) ([]model.Appointment, error) {
	ticket := st.Appointments.Begin()
	appointments, err := s.appointments.List(ctx, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to load appointments")
		return nil, apperrors.Upstream(MsgLoadAppointmentsFailed, err)
	}
	st.Appointments.Commit(ticket, appointments)
	current, _ := st.Appointments.Snapshot()
	return current, nil
}

func (s *Service) CreateAppointment(ctx context.Context, subject model.ID, appointment *model.Appointment) (*AppointmentView, error) {
	appointment.ID = ""
	if appointment.AppStatus == "" {
		appointment.AppStatus = model.AppointmentStatusPending
	}
	created, err := s.appointments.Create(ctx, appointment)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to add appointment")
		return nil, apperrors.Upstream(MsgAddAppointmentFailed, err)
	}
	s.sessions.Get(subject.String()).Appointments.Append(*created)

	v := view(*created)
	return &v, nil
}

// Dashboard counts doctors and appointments, loading whichever is not cached.
func (s *Service) Dashboard(ctx context.Context, subject model.ID) (*Dashboard, error) {
	doctors, err := s.ListDoctors(ctx, subject, false)
	if err != nil {
		return nil, err
	}
	appointments, err := s.ListAppointments(ctx, subject, false)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Doctors: len(doctors), Appointments: len(appointments)}, nil
}

func sanitize(doctors []model.Doctor) []model.Doctor {
	out := make([]model.Doctor, len(doctors))
	for i, d := range doctors {
		out[i] = d.Sanitized()
	}
	return out
}

func view(a model.Appointment) AppointmentView {
	return AppointmentView{Appointment: a, PaymentStatus: a.PaymentStatus(), Paid: a.Paid()}
}

func views(appointments []model.Appointment) []AppointmentView {
	out := make([]AppointmentView, len(appointments))
	for i, a := range appointments {
		out[i] = view(a)
	}
	return out
}
