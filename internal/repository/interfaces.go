package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/clinic-console/internal/model"
)

var (
	// ErrNotFound means the data service has no record with the given id.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable means the data service could not be reached.
	ErrUnavailable = errors.New("data service unavailable")
)

// Filter is a set of exact-match field constraints pushed to the data service.
type Filter map[string]string

// Field names the data service filters on.
const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldDoctorID     = "doctorId"
	FieldDoctorName   = "doctorName"
	FieldPatientEmail = "patientEmail"
)

// All repository interfaces in one file
type (
	AdminRepository interface {
		FindByCredentials(ctx context.Context, email, password string) ([]model.Admin, error)
	}

	DoctorRepository interface {
		List(ctx context.Context) ([]model.Doctor, error)
		FindByCredentials(ctx context.Context, email, password string) ([]model.Doctor, error)
		Get(ctx context.Context, id model.ID) (*model.Doctor, error)
		Create(ctx context.Context, doctor *model.Doctor) (*model.Doctor, error)
		Replace(ctx context.Context, doctor *model.Doctor) (*model.Doctor, error)
		SetAvailability(ctx context.Context, id model.ID, available bool) (*model.Doctor, error)
	}

	AppointmentRepository interface {
		List(ctx context.Context, filter Filter) ([]model.Appointment, error)
		Get(ctx context.Context, id model.ID) (*model.Appointment, error)
		Create(ctx context.Context, appointment *model.Appointment) (*model.Appointment, error)
		Patch(ctx context.Context, id model.ID, fields map[string]interface{}) (*model.Appointment, error)
		Delete(ctx context.Context, id model.ID) error
	}

	PrescriptionRepository interface {
		List(ctx context.Context, filter Filter) ([]model.Prescription, error)
		Get(ctx context.Context, id model.ID) (*model.Prescription, error)
		Create(ctx context.Context, prescription *model.Prescription) (*model.Prescription, error)
		Replace(ctx context.Context, prescription *model.Prescription) (*model.Prescription, error)
		Delete(ctx context.Context, id model.ID) error
	}

	ReviewRepository interface {
		List(ctx context.Context, filter Filter) ([]model.Review, error)
	}

	PatientRepository interface {
		List(ctx context.Context, filter Filter) ([]model.Patient, error)
	}

	// TokenRepository records revoked session token ids until they expire.
	TokenRepository interface {
		Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
		IsRevoked(ctx context.Context, tokenID string) (bool, error)
	}
)
