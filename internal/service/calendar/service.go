// Package calendar lays a doctor's appointments out as calendar events and
// moves them by drag and drop.
package calendar

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/service/doctor"
	"github.com/jwalitptl/clinic-console/pkg/apptime"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
)

// EventDuration is the fixed length of every appointment slot.
const EventDuration = 30 * time.Minute

const UnknownPatient = "Unknown Patient"

type Event struct {
	ID          model.ID                `json:"id"`
	Title       string                  `json:"title"`
	Start       time.Time               `json:"start"`
	End         time.Time               `json:"end"`
	Status      model.AppointmentStatus `json:"status"`
	Cancellable bool                    `json:"cancellable"`
	Appointment model.Appointment       `json:"appointment"`
}

// Board is the calendar. Appointments whose datetime does not parse are
// left off and reported in Skipped.
type Board struct {
	Events     []Event    `json:"events"`
	Skipped    int        `json:"skipped"`
	SkippedIDs []model.ID `json:"skippedIds,omitempty"`
}

// BuildBoard converts appointments to events interpreted in loc.
func BuildBoard(ctx context.Context, appointments []model.Appointment, loc *time.Location) *Board {
	board := &Board{Events: make([]Event, 0, len(appointments))}
	for _, a := range appointments {
		start, err := a.When(loc)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).
				Str("appointment_id", a.ID.String()).
				Str("datetime", a.Datetime).
				Msg("skipping appointment with unparseable datetime")
			board.Skipped++
			board.SkippedIDs = append(board.SkippedIDs, a.ID)
			continue
		}
		title := strings.TrimSpace(a.PatientName)
		if title == "" {
			title = UnknownPatient
		}
		board.Events = append(board.Events, Event{
			ID:          a.ID,
			Title:       title,
			Start:       start,
			End:         start.Add(EventDuration),
			Status:      a.AppStatus,
			Cancellable: !a.AppStatus.Is(model.AppointmentStatusCancelled),
			Appointment: a,
		})
	}
	return board
}

// Appointments is the part of the doctor console the calendar works through.
type Appointments interface {
	Appointments(ctx context.Context, subject model.ID, refresh bool) ([]model.Appointment, error)
	Reschedule(ctx context.Context, subject model.ID, appointment model.Appointment) (*doctor.AppointmentResult, error)
	Location() *time.Location
}

type Service struct {
	appointments Appointments
	skipped      func(n int)
}

// NewService builds the calendar over the doctor console. m may be nil.
func NewService(appointments Appointments, m *metrics.Metrics) *Service {
	s := &Service{appointments: appointments, skipped: func(int) {}}
	if m != nil {
		s.skipped = func(n int) { m.CalendarSkipped.Add(float64(n)) }
	}
	return s
}

func (s *Service) Board(ctx context.Context, subject model.ID, refresh bool) (*Board, error) {
	list, err := s.appointments.Appointments(ctx, subject, refresh)
	if err != nil {
		return nil, err
	}
	board := BuildBoard(ctx, list, s.appointments.Location())
	if board.Skipped > 0 {
		s.skipped(board.Skipped)
	}
	return board, nil
}

// Move reschedules appointment id to start. The full record is written back
// with the new datetime and the Rescheduled status.
func (s *Service) Move(ctx context.Context, subject, id model.ID, start time.Time) (*doctor.AppointmentResult, error) {
	list, err := s.appointments.Appointments(ctx, subject, false)
	if err != nil {
		return nil, err
	}
	var (
		appt  model.Appointment
		found bool
	)
	for _, a := range list {
		if a.ID == id {
			appt, found = a, true
			break
		}
	}
	if !found {
		return nil, apperrors.NotFound("Appointment", nil)
	}

	appt.Datetime = apptime.Format(start.In(s.appointments.Location()))
	appt.AppStatus = model.AppointmentStatusRescheduled
	return s.appointments.Reschedule(ctx, subject, appt)
}
