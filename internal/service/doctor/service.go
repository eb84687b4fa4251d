// Package doctor is a physician's console state: their profile, their
// appointments and their prescriptions, cached per doctor session. Every
// read and write is scoped to the session subject.
package doctor

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
	MsgLoadProfileFailed        = "Failed to load doctor profile"
	MsgProfileUpdated           = "Profile updated successfully!"
	MsgUpdateProfileFailed      = "Failed to update profile"
	MsgFetchAppointmentsFailed  = "Failed to fetch appointments"
	MsgUpdateStatusFailed       = "Failed to update status"
	MsgAppointmentCancelled     = "Appointment cancelled successfully"
	MsgCancelFailed             = "Failed to cancel appointment"
	MsgRescheduled              = "Appointment rescheduled"
	MsgRescheduleFailed         = "Rescheduling failed"
	MsgNotesSaved               = "Medical notes saved"
	MsgSaveNotesFailed          = "Failed to save changes"
	MsgPrescriptionSaved        = "Prescription saved"
	MsgSavePrescriptionFailed   = "Failed to save prescription"
	MsgFetchPrescriptionsFailed = "Failed to fetch prescriptions"
	MsgPrescriptionAdded        = "Prescription added"
	MsgAddPrescriptionFailed    = "Failed to add prescription"
	MsgPrescriptionUpdated      = "Prescription updated"
	MsgUpdatePrescriptionFailed = "Failed to update prescription"
	MsgPrescriptionDeleted      = "Prescription deleted"
	MsgDeletePrescriptionFailed = "Failed to delete prescription"
	MsgFetchReviewsFailed       = "Failed to fetch reviews"
)

// State is one doctor session's cache.
type State struct {
	Profile       state.Value[model.Doctor]
	Appointments  state.List[model.Appointment]
	Prescriptions state.List[model.Prescription]
}

type Config struct {
	SessionTTL time.Duration
	// Location interprets appointment datetimes. Nil means time.Local.
	Location *time.Location
	// Now is the clock for "today" and prescription timestamps.
	Now func() time.Time
}

type Service struct {
	doctors       repository.DoctorRepository
	appointments  repository.AppointmentRepository
	prescriptions repository.PrescriptionRepository
	reviews       repository.ReviewRepository
	sessions      *state.Registry[State]
	loc           *time.Location
	now           func() time.Time
}

func NewService(
	doctors repository.DoctorRepository,
	appointments repository.AppointmentRepository,
	prescriptions repository.PrescriptionRepository,
	reviews repository.ReviewRepository,
	cfg Config,
) *Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		doctors:       doctors,
		appointments:  appointments,
		prescriptions: prescriptions,
		reviews:       reviews,
		sessions:      state.NewRegistry(cfg.SessionTTL, func() *State { return &State{} }),
		loc:           cfg.Location,
		now:           cfg.Now,
	}
}

// Location is where appointment datetimes are interpreted.
func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) state(subject model.ID) *State {
	return s.sessions.Get(subject.String())
}

// Prime loads the profile, the appointments and the prescriptions
// independently. Each failure becomes one notice.
func (s *Service) Prime(ctx context.Context, subject model.ID) []string {
	loads := []func() error{
		func() error { _, err := s.LoadProfile(ctx, subject); return err },
		func() error { _, err := s.FetchAppointments(ctx, subject); return err },
		func() error { _, err := s.FetchPrescriptions(ctx, subject); return err },
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		notices []string
	)
	for _, load := range loads {
		wg.Add(1)
		go func(load func() error) {
			defer wg.Done()
			if err := load(); err != nil {
				mu.Lock()
				notices = append(notices, noticeOf(err))
				mu.Unlock()
			}
		}(load)
	}
	wg.Wait()
	return notices
}

func (s *Service) Forget(subject model.ID) {
	s.sessions.Drop(subject.String())
}

// LoadProfile fetches the doctor's own record into the cache.
func (s *Service) LoadProfile(ctx context.Context, subject model.ID) (*model.Doctor, error) {
	doctor, err := s.doctors.Get(ctx, subject)
	if err != nil {
		return nil, failure(ctx, "Doctor profile", MsgLoadProfileFailed, err)
	}
	s.state(subject).Profile.Set(*doctor)

	out := doctor.Sanitized()
	return &out, nil
}

// Profile serves the cached profile, loading it when absent or refresh is set.
func (s *Service) Profile(ctx context.Context, subject model.ID, refresh bool) (*model.Doctor, error) {
	if !refresh {
		if doctor, ok := s.state(subject).Profile.Get(); ok {
			out := doctor.Sanitized()
			return &out, nil
		}
	}
	return s.LoadProfile(ctx, subject)
}

// UpdateProfile replaces the doctor's record. The identity is always the
// session subject; an empty password keeps the stored one and a temporary
// image reference keeps the stored image.
func (s *Service) UpdateProfile(ctx context.Context, subject model.ID, doctor model.Doctor) (*model.Doctor, error) {
	st := s.state(subject)
	current, ok := st.Profile.Get()
	if !ok {
		stored, err := s.doctors.Get(ctx, subject)
		if err != nil {
			return nil, failure(ctx, "Doctor profile", MsgUpdateProfileFailed, err)
		}
		current = *stored
	}

	doctor.ID = subject
	if doctor.Password == "" {
		doctor.Password = current.Password
	}
	if doctor.Image == "" || model.IsTemporaryImageRef(doctor.Image) {
		doctor.Image = current.Image
	}

	stored, err := s.doctors.Replace(ctx, &doctor)
	if err != nil {
		return nil, failure(ctx, "Doctor profile", MsgUpdateProfileFailed, err)
	}
	st.Profile.Set(*stored)

	out := stored.Sanitized()
	return &out, nil
}

// failure logs err and maps it to the user-facing error for the action.
func failure(ctx context.Context, resource, message string, err error) error {
	zerolog.Ctx(ctx).Error().Err(err).Msg(message)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return apperrors.Upstream(message, err)
}

func noticeOf(err error) string {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.Message
	}
	return err.Error()
}
