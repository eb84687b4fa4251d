// Package history builds a patient's medical history report from their
// appointments, for display and for printing.
package history

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/repository"
	"github.com/jwalitptl/clinic-console/pkg/apptime"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
)

const (
	MsgFetchPatientFailed      = "Failed to fetch patient info"
	MsgFetchAppointmentsFailed = "Failed to fetch appointments"
	MsgNoAppointmentsInRange   = "No appointments found for selected date range."
)

// DateLayout is the form of the from/to filter values.
const DateLayout = "2006-01-02"

// Query selects a patient by email and optionally narrows their appointments
// to an inclusive date range.
type Query struct {
	Email string `form:"email" binding:"required,email"`
	From  string `form:"from"`
	To    string `form:"to"`
}

// Range is an inclusive calendar-date range. A zero bound is open.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Contains reports whether t's date falls within the range.
func (r Range) Contains(t time.Time) bool {
	day := apptime.DateOf(t)
	if !r.From.IsZero() && day.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && day.After(r.To) {
		return false
	}
	return true
}

// ParseRange reads from and to as dates in loc. Either may be empty.
func ParseRange(from, to string, loc *time.Location) (Range, error) {
	var r Range
	var err error
	if from = strings.TrimSpace(from); from != "" {
		if r.From, err = time.ParseInLocation(DateLayout, from, loc); err != nil {
			return Range{}, apperrors.BadRequest(fmt.Sprintf("invalid from date %q, expected YYYY-MM-DD", from), err)
		}
	}
	if to = strings.TrimSpace(to); to != "" {
		if r.To, err = time.ParseInLocation(DateLayout, to, loc); err != nil {
			return Range{}, apperrors.BadRequest(fmt.Sprintf("invalid to date %q, expected YYYY-MM-DD", to), err)
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return Range{}, apperrors.BadRequest("from date is after to date", nil)
	}
	return r, nil
}

type Report struct {
	Patient            model.Patient       `json:"patient"`
	Appointments       []model.Appointment `json:"appointments"`
	TotalAppointments  int                 `json:"totalAppointments"`
	TotalPrescriptions int                 `json:"totalPrescriptions"`
	From               string              `json:"from,omitempty"`
	To                 string              `json:"to,omitempty"`
}

type Service struct {
	patients     repository.PatientRepository
	appointments repository.AppointmentRepository
	loc          *time.Location
}

// NewService builds the report service. A nil loc means time.Local.
func NewService(patients repository.PatientRepository, appointments repository.AppointmentRepository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{patients: patients, appointments: appointments, loc: loc}
}

// Report looks up the patient, then their appointments, newest first and
// narrowed to the requested dates.
func (s *Service) Report(ctx context.Context, q Query) (*Report, error) {
	r, err := ParseRange(q.From, q.To, s.loc)
	if err != nil {
		return nil, err
	}
	logger := zerolog.Ctx(ctx)

	patients, err := s.patients.List(ctx, repository.Filter{repository.FieldEmail: q.Email})
	if err != nil {
		logger.Error().Err(err).Msg(MsgFetchPatientFailed)
		return nil, apperrors.Upstream(MsgFetchPatientFailed, err)
	}
	if len(patients) == 0 {
		return nil, apperrors.NotFound("Patient", nil)
	}

	appointments, err := s.appointments.List(ctx, repository.Filter{repository.FieldPatientEmail: q.Email})
	if err != nil {
		logger.Error().Err(err).Msg(MsgFetchAppointmentsFailed)
		return nil, apperrors.Upstream(MsgFetchAppointmentsFailed, err)
	}

	filtered := Filter(Sort(appointments, s.loc), r, s.loc)
	return &Report{
		Patient:            patients[0],
		Appointments:       filtered,
		TotalAppointments:  len(filtered),
		TotalPrescriptions: PrescriptionCount(filtered),
		From:               strings.TrimSpace(q.From),
		To:                 strings.TrimSpace(q.To),
	}, nil
}

// Sort orders appointments newest first. Unparseable datetimes go last, in
// their original order.
func Sort(appointments []model.Appointment, loc *time.Location) []model.Appointment {
	type keyed struct {
		a    model.Appointment
		when time.Time
		ok   bool
	}
	rows := make([]keyed, len(appointments))
	for i, a := range appointments {
		when, err := a.When(loc)
		rows[i] = keyed{a: a, when: when, ok: err == nil}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ok != rows[j].ok {
			return rows[i].ok
		}
		return rows[i].when.After(rows[j].when)
	})

	out := make([]model.Appointment, len(rows))
	for i, row := range rows {
		out[i] = row.a
	}
	return out
}

// Filter keeps appointments dated within r. With a bounded range, entries
// whose datetime does not parse are dropped.
func Filter(appointments []model.Appointment, r Range, loc *time.Location) []model.Appointment {
	if r.IsZero() {
		return appointments
	}
	out := make([]model.Appointment, 0, len(appointments))
	for _, a := range appointments {
		if when, err := a.When(loc); err == nil && r.Contains(when) {
			out = append(out, a)
		}
	}
	return out
}

// PrescriptionCount totals the prescription lines across appointments.
func PrescriptionCount(appointments []model.Appointment) int {
	n := 0
	for _, a := range appointments {
		n += len(a.Prescription)
	}
	return n
}
