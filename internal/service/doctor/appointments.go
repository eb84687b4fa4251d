package doctor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/repository"
	"github.com/jwalitptl/clinic-console/pkg/apptime"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
)

// AppointmentResult is the outcome of an appointment write: the stored
// record, when there is one, and the re-fetched list.
type AppointmentResult struct {
	Appointment  *model.Appointment  `json:"appointment,omitempty"`
	Appointments []model.Appointment `json:"appointments"`
	Notices      []string            `json:"-"`
}

// FetchAppointments reloads the doctor's appointments. The data service is
// asked for this doctor's rows only; rows for any other doctor are dropped
// regardless.
func (s *Service) FetchAppointments(ctx context.Context, subject model.ID) ([]model.Appointment, error) {
	st := s.state(subject)
	ticket := st.Appointments.Begin()

	all, err := s.appointments.List(ctx, repository.Filter{repository.FieldDoctorID: subject.String()})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg(MsgFetchAppointmentsFailed)
		return nil, apperrors.Upstream(MsgFetchAppointmentsFailed, err)
	}
	st.Appointments.Commit(ticket, ownedAppointments(all, subject))

	current, _ := st.Appointments.Snapshot()
	return current, nil
}

func ownedAppointments(all []model.Appointment, subject model.ID) []model.Appointment {
	owned := make([]model.Appointment, 0, len(all))
	for _, a := range all {
		if a.DoctorID == subject {
			owned = append(owned, a)
		}
	}
	return owned
}

// Appointments serves the cached list, fetching it when absent or refresh is set.
func (s *Service) Appointments(ctx context.Context, subject model.ID, refresh bool) ([]model.Appointment, error) {
	if !refresh {
		if list, ok := s.state(subject).Appointments.Snapshot(); ok {
			return list, nil
		}
	}
	return s.FetchAppointments(ctx, subject)
}

// Present orders appointments newest booking first and swaps temporary
// patient images for the placeholder.
func Present(appointments []model.Appointment) []model.Appointment {
	out := make([]model.Appointment, len(appointments))
	for i, a := range appointments {
		if model.IsTemporaryImageRef(a.PatientImage) {
			a.PatientImage = model.PlaceholderImage
		}
		out[len(appointments)-1-i] = a
	}
	return out
}

// owned fetches appointment id and checks it belongs to subject. Another
// doctor's appointment reads as missing.
func (s *Service) owned(ctx context.Context, subject, id model.ID, message string) (*model.Appointment, error) {
	a, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, failure(ctx, "Appointment", message, err)
	}
	if a.DoctorID != subject {
		return nil, apperrors.NotFound("Appointment", nil)
	}
	return a, nil
}

func (s *Service) patch(ctx context.Context, subject, id model.ID, fields map[string]interface{}, message string) (*AppointmentResult, error) {
	if _, err := s.owned(ctx, subject, id, message); err != nil {
		return nil, err
	}
	stored, err := s.appointments.Patch(ctx, id, fields)
	if err != nil {
		return nil, failure(ctx, "Appointment", message, err)
	}
	return s.refetchAppointments(ctx, subject, stored), nil
}

// refetchAppointments reloads the list after a confirmed write. A failed
// reload is reported as a notice; the write stands.
func (s *Service) refetchAppointments(ctx context.Context, subject model.ID, stored *model.Appointment) *AppointmentResult {
	res := &AppointmentResult{Appointment: stored}
	list, err := s.FetchAppointments(ctx, subject)
	if err != nil {
		res.Notices = append(res.Notices, noticeOf(err))
		list, _ = s.state(subject).Appointments.Snapshot()
	}
	res.Appointments = list
	return res
}

// StatusMessage is the confirmation shown after a status change.
func StatusMessage(status model.AppointmentStatus) string {
	return fmt.Sprintf("Appointment %s", status)
}

// UpdateStatus sets the appointment's visit status, then reloads the list once.
func (s *Service) UpdateStatus(ctx context.Context, subject, id model.ID, status string) (*AppointmentResult, model.AppointmentStatus, error) {
	st, ok := model.ParseAppointmentStatus(status)
	if !ok {
		return nil, "", apperrors.BadRequest(fmt.Sprintf("unknown appointment status %q", status), nil)
	}
	res, err := s.patch(ctx, subject, id, map[string]interface{}{"appstatus": st}, MsgUpdateStatusFailed)
	if err != nil {
		return nil, "", err
	}
	return res, st, nil
}

// Cancel deletes the appointment outright, then reloads the list.
func (s *Service) Cancel(ctx context.Context, subject, id model.ID) (*AppointmentResult, error) {
	if _, err := s.owned(ctx, subject, id, MsgCancelFailed); err != nil {
		return nil, err
	}
	if err := s.appointments.Delete(ctx, id); err != nil {
		return nil, failure(ctx, "Appointment", MsgCancelFailed, err)
	}
	return s.refetchAppointments(ctx, subject, nil), nil
}

// Reschedule writes the modified appointment back, then reloads the list.
func (s *Service) Reschedule(ctx context.Context, subject model.ID, appointment model.Appointment) (*AppointmentResult, error) {
	if _, err := apptime.ParseInLocation(appointment.Datetime, s.loc); err != nil {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid appointment datetime %q", appointment.Datetime), err)
	}
	appointment.DoctorID = subject

	fields, err := toFields(appointment)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return s.patch(ctx, subject, appointment.ID, fields, MsgRescheduleFailed)
}

// UpdateNotes saves the diagnoses and allergies recorded for the visit.
func (s *Service) UpdateNotes(ctx context.Context, subject, id model.ID, notes model.NotesRequest) (*AppointmentResult, error) {
	return s.patch(ctx, subject, id, map[string]interface{}{
		"diagnoses": notes.Diagnoses,
		"allergies": notes.Allergies,
	}, MsgSaveNotesFailed)
}

// AttachPrescription stores prescription lines on the appointment. Callers
// chain it after writing the prescription record.
func (s *Service) AttachPrescription(ctx context.Context, subject, id model.ID, lines []model.PrescriptionLine) (*AppointmentResult, error) {
	return s.attach(ctx, subject, id, lines, "")
}

func (s *Service) attach(ctx context.Context, subject, id model.ID, lines []model.PrescriptionLine, prescriptionID model.ID) (*AppointmentResult, error) {
	if lines == nil {
		lines = []model.PrescriptionLine{}
	}
	fields := map[string]interface{}{"prescription": lines}
	if !prescriptionID.IsZero() {
		fields["prescriptionId"] = prescriptionID
	}
	return s.patch(ctx, subject, id, fields, MsgSavePrescriptionFailed)
}

// toFields encodes the record as a patch body. The id stays in the URL.
func toFields(a model.Appointment) (map[string]interface{}, error) {
	buf, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode appointment: %w", err)
	}
	fields := map[string]interface{}{}
	if err := json.Unmarshal(buf, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode appointment: %w", err)
	}
	delete(fields, "id")
	return fields, nil
}
