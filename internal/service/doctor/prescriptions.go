package doctor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/repository"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
)

// Query narrows the prescription board. Q matches patient names and
// medicines; Patient, when set, must equal the patient name exactly.
type Query struct {
	Q       string `form:"q"`
	Patient string `form:"patient"`
}

// Board is the prescriptions screen: the matching records and the patient
// names available for the patient filter.
type Board struct {
	Prescriptions []model.Prescription `json:"prescriptions"`
	Patients      []string             `json:"patients"`
}

type PrescriptionResult struct {
	Prescription  *model.Prescription  `json:"prescription,omitempty"`
	Prescriptions []model.Prescription `json:"prescriptions"`
	Notices       []string             `json:"-"`
}

// FetchPrescriptions reloads the doctor's own prescriptions.
func (s *Service) FetchPrescriptions(ctx context.Context, subject model.ID) ([]model.Prescription, error) {
	st := s.state(subject)
	ticket := st.Prescriptions.Begin()

	all, err := s.prescriptions.List(ctx, repository.Filter{repository.FieldDoctorID: subject.String()})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg(MsgFetchPrescriptionsFailed)
		return nil, apperrors.Upstream(MsgFetchPrescriptionsFailed, err)
	}
	owned := make([]model.Prescription, 0, len(all))
	for _, p := range all {
		if p.DoctorID == subject {
			owned = append(owned, p)
		}
	}
	st.Prescriptions.Commit(ticket, owned)

	current, _ := st.Prescriptions.Snapshot()
	return current, nil
}

// Prescriptions serves the board from the cached list, fetching it when absent
// or refresh is set.
func (s *Service) Prescriptions(ctx context.Context, subject model.ID, q Query, refresh bool) (*Board, error) {
	list, ok := s.state(subject).Prescriptions.Snapshot()
	if refresh || !ok {
		var err error
		if list, err = s.FetchPrescriptions(ctx, subject); err != nil {
			return nil, err
		}
	}
	return &Board{
		Prescriptions: SearchPrescriptions(list, q),
		Patients:      PatientNames(list),
	}, nil
}

// SearchPrescriptions keeps the records matching q, in their original order.
func SearchPrescriptions(list []model.Prescription, q Query) []model.Prescription {
	out := make([]model.Prescription, 0, len(list))
	for _, p := range list {
		if q.Patient != "" && p.PatientName != q.Patient {
			continue
		}
		if p.Matches(q.Q) {
			out = append(out, p)
		}
	}
	return out
}

// PatientNames lists distinct patient names in order of first appearance.
func PatientNames(list []model.Prescription) []string {
	seen := make(map[string]bool, len(list))
	names := make([]string, 0, len(list))
	for _, p := range list {
		name := strings.TrimSpace(p.PatientName)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// CreatePrescription stores a new record authored by subject.
func (s *Service) CreatePrescription(ctx context.Context, subject model.ID, p model.Prescription) (*PrescriptionResult, error) {
	p.ID = ""
	p.DoctorID = subject
	p.Datetime = s.now().Format(time.RFC3339)

	stored, err := s.prescriptions.Create(ctx, &p)
	if err != nil {
		return nil, failure(ctx, "Prescription", MsgAddPrescriptionFailed, err)
	}
	return s.refetchPrescriptions(ctx, subject, stored), nil
}

// EditPrescription replaces one of subject's records. Author and timestamp
// are kept from the stored record when the edit omits a timestamp.
func (s *Service) EditPrescription(ctx context.Context, subject, id model.ID, p model.Prescription) (*PrescriptionResult, error) {
	current, err := s.ownedPrescription(ctx, subject, id, MsgUpdatePrescriptionFailed)
	if err != nil {
		return nil, err
	}
	p.ID = id
	p.DoctorID = subject
	if p.Datetime == "" {
		p.Datetime = current.Datetime
	}

	stored, err := s.prescriptions.Replace(ctx, &p)
	if err != nil {
		return nil, failure(ctx, "Prescription", MsgUpdatePrescriptionFailed, err)
	}
	return s.refetchPrescriptions(ctx, subject, stored), nil
}

func (s *Service) DeletePrescription(ctx context.Context, subject, id model.ID) (*PrescriptionResult, error) {
	if _, err := s.ownedPrescription(ctx, subject, id, MsgDeletePrescriptionFailed); err != nil {
		return nil, err
	}
	if err := s.prescriptions.Delete(ctx, id); err != nil {
		return nil, failure(ctx, "Prescription", MsgDeletePrescriptionFailed, err)
	}
	return s.refetchPrescriptions(ctx, subject, nil), nil
}

func (s *Service) ownedPrescription(ctx context.Context, subject, id model.ID, message string) (*model.Prescription, error) {
	p, err := s.prescriptions.Get(ctx, id)
	if err != nil {
		return nil, failure(ctx, "Prescription", message, err)
	}
	if p.DoctorID != subject {
		return nil, apperrors.NotFound("Prescription", nil)
	}
	return p, nil
}

func (s *Service) refetchPrescriptions(ctx context.Context, subject model.ID, stored *model.Prescription) *PrescriptionResult {
	res := &PrescriptionResult{Prescription: stored}
	list, err := s.FetchPrescriptions(ctx, subject)
	if err != nil {
		res.Notices = append(res.Notices, noticeOf(err))
		list, _ = s.state(subject).Prescriptions.Snapshot()
	}
	res.Prescriptions = list
	return res
}

// Prescribe writes the prescription record for an appointment and then
// attaches its lines to the appointment. An appointment that already points
// at a record updates that record instead of creating another.
func (s *Service) Prescribe(ctx context.Context, subject, appointmentID model.ID, req model.PrescribeRequest) (*AppointmentResult, error) {
	appt, err := s.owned(ctx, subject, appointmentID, MsgSavePrescriptionFailed)
	if err != nil {
		return nil, err
	}

	record := model.Prescription{
		DoctorID:      subject,
		PatientName:   appt.PatientName,
		Diagnoses:     appt.Diagnoses,
		Allergies:     appt.Allergies,
		Notes:         req.Notes,
		Prescriptions: req.Prescriptions,
		Datetime:      s.now().Format(time.RFC3339),
	}

	var stored *model.Prescription
	created := false
	if !appt.PrescriptionID.IsZero() {
		record.ID = appt.PrescriptionID
		stored, err = s.prescriptions.Replace(ctx, &record)
		if errors.Is(err, repository.ErrNotFound) {
			record.ID = ""
			stored, err = s.prescriptions.Create(ctx, &record)
			created = err == nil
		}
	} else {
		stored, err = s.prescriptions.Create(ctx, &record)
		created = err == nil
	}
	if err != nil {
		return nil, failure(ctx, "Prescription", MsgSavePrescriptionFailed, err)
	}

	res, err := s.attach(ctx, subject, appointmentID, stored.Prescriptions, stored.ID)
	if err != nil {
		// a record the appointment does not point at must not survive
		if created {
			if derr := s.prescriptions.Delete(ctx, stored.ID); derr != nil {
				zerolog.Ctx(ctx).Error().Err(derr).
					Str("prescription_id", stored.ID.String()).
					Str("appointment_id", appointmentID.String()).
					Msg("failed to remove unattached prescription")
			}
		}
		return nil, err
	}
	if _, perr := s.FetchPrescriptions(ctx, subject); perr != nil {
		res.Notices = append(res.Notices, noticeOf(perr))
	}
	return res, nil
}
