package rest

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/repository"
)

// Collection names on the data service.
const (
	CollectionAdmins        = "admins"
	CollectionDoctors       = "doctors"
	CollectionAppointments  = "appointments"
	CollectionPrescriptions = "prescriptions"
	CollectionReviews       = "reviews"
	CollectionPatients      = "patients"
)

func credentials(email, password string) repository.Filter {
	return repository.Filter{
		repository.FieldEmail:    email,
		repository.FieldPassword: password,
	}
}

type AdminRepository struct {
	c *Client
}

func NewAdminRepository(c *Client) *AdminRepository {
	return &AdminRepository{c: c}
}

func (r *AdminRepository) FindByCredentials(ctx context.Context, email, password string) ([]model.Admin, error) {
	var admins []model.Admin
	if err := r.c.List(ctx, CollectionAdmins, credentials(email, password), &admins); err != nil {
		return nil, fmt.Errorf("failed to query admins: %w", err)
	}
	return admins, nil
}

type DoctorRepository struct {
	c *Client
}

func NewDoctorRepository(c *Client) *DoctorRepository {
	return &DoctorRepository{c: c}
}

func (r *DoctorRepository) List(ctx context.Context) ([]model.Doctor, error) {
	var doctors []model.Doctor
	if err := r.c.List(ctx, CollectionDoctors, nil, &doctors); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *DoctorRepository) FindByCredentials(ctx context.Context, email, password string) ([]model.Doctor, error) {
	var doctors []model.Doctor
	if err := r.c.List(ctx, CollectionDoctors, credentials(email, password), &doctors); err != nil {
		return nil, fmt.Errorf("failed to query doctors: %w", err)
	}
	return doctors, nil
}

func (r *DoctorRepository) Get(ctx context.Context, id model.ID) (*model.Doctor, error) {
	var doctor model.Doctor
	if err := r.c.Get(ctx, CollectionDoctors, id.String(), &doctor); err != nil {
		return nil, fmt.Errorf("failed to get doctor %s: %w", id, err)
	}
	return &doctor, nil
}

func (r *DoctorRepository) Create(ctx context.Context, doctor *model.Doctor) (*model.Doctor, error) {
	var created model.Doctor
	if err := r.c.Create(ctx, CollectionDoctors, doctor, &created); err != nil {
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}
	return &created, nil
}

func (r *DoctorRepository) Replace(ctx context.Context, doctor *model.Doctor) (*model.Doctor, error) {
	var stored model.Doctor
	if err := r.c.Replace(ctx, CollectionDoctors, doctor.ID.String(), doctor, &stored); err != nil {
		return nil, fmt.Errorf("failed to replace doctor %s: %w", doctor.ID, err)
	}
	return &stored, nil
}

func (r *DoctorRepository) SetAvailability(ctx context.Context, id model.ID, available bool) (*model.Doctor, error) {
	var stored model.Doctor
	body := map[string]interface{}{"available": available}
	if err := r.c.Patch(ctx, CollectionDoctors, id.String(), body, &stored); err != nil {
		return nil, fmt.Errorf("failed to set availability for doctor %s: %w", id, err)
	}
	return &stored, nil
}

type AppointmentRepository struct {
	c *Client
}

func NewAppointmentRepository(c *Client) *AppointmentRepository {
	return &AppointmentRepository{c: c}
}

func (r *AppointmentRepository) List(ctx context.Context, filter repository.Filter) ([]model.Appointment, error) {
	var appointments []model.Appointment
	if err := r.c.List(ctx, CollectionAppointments, filter, &appointments); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id model.ID) (*model.Appointment, error) {
	var appointment model.Appointment
	if err := r.c.Get(ctx, CollectionAppointments, id.String(), &appointment); err != nil {
		return nil, fmt.Errorf("failed to get appointment %s: %w", id, err)
	}
	return &appointment, nil
}

func (r *AppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) (*model.Appointment, error) {
	var created model.Appointment
	if err := r.c.Create(ctx, CollectionAppointments, appointment, &created); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	return &created, nil
}

func (r *AppointmentRepository) Patch(ctx context.Context, id model.ID, fields map[string]interface{}) (*model.Appointment, error) {
	var stored model.Appointment
	if err := r.c.Patch(ctx, CollectionAppointments, id.String(), fields, &stored); err != nil {
		return nil, fmt.Errorf("failed to patch appointment %s: %w", id, err)
	}
	return &stored, nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, id model.ID) error {
	if err := r.c.Delete(ctx, CollectionAppointments, id.String()); err != nil {
		return fmt.Errorf("failed to delete appointment %s: %w", id, err)
	}
	return nil
}

type PrescriptionRepository struct {
	c *Client
}

func NewPrescriptionRepository(c *Client) *PrescriptionRepository {
	return &PrescriptionRepository{c: c}
}

func (r *PrescriptionRepository) List(ctx context.Context, filter repository.Filter) ([]model.Prescription, error) {
	var prescriptions []model.Prescription
	if err := r.c.List(ctx, CollectionPrescriptions, filter, &prescriptions); err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return prescriptions, nil
}

func (r *PrescriptionRepository) Get(ctx context.Context, id model.ID) (*model.Prescription, error) {
	var prescription model.Prescription
	if err := r.c.Get(ctx, CollectionPrescriptions, id.String(), &prescription); err != nil {
		return nil, fmt.Errorf("failed to get prescription %s: %w", id, err)
	}
	return &prescription, nil
}

func (r *PrescriptionRepository) Create(ctx context.Context, prescription *model.Prescription) (*model.Prescription, error) {
	var created model.Prescription
	if err := r.c.Create(ctx, CollectionPrescriptions, prescription, &created); err != nil {
		return nil, fmt.Errorf("failed to create prescription: %w", err)
	}
	return &created, nil
}

func (r *PrescriptionRepository) Replace(ctx context.Context, prescription *model.Prescription) (*model.Prescription, error) {
	var stored model.Prescription
	if err := r.c.Replace(ctx, CollectionPrescriptions, prescription.ID.String(), prescription, &stored); err != nil {
		return nil, fmt.Errorf("failed to replace prescription %s: %w", prescription.ID, err)
	}
	return &stored, nil
}

func (r *PrescriptionRepository) Delete(ctx context.Context, id model.ID) error {
	if err := r.c.Delete(ctx, CollectionPrescriptions, id.String()); err != nil {
		return fmt.Errorf("failed to delete prescription %s: %w", id, err)
	}
	return nil
}

type ReviewRepository struct {
	c *Client
}

func NewReviewRepository(c *Client) *ReviewRepository {
	return &ReviewRepository{c: c}
}

func (r *ReviewRepository) List(ctx context.Context, filter repository.Filter) ([]model.Review, error) {
	var reviews []model.Review
	if err := r.c.List(ctx, CollectionReviews, filter, &reviews); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

type PatientRepository struct {
	c *Client
}

func NewPatientRepository(c *Client) *PatientRepository {
	return &PatientRepository{c: c}
}

func (r *PatientRepository) List(ctx context.Context, filter repository.Filter) ([]model.Patient, error) {
	var patients []model.Patient
	if err := r.c.List(ctx, CollectionPatients, filter, &patients); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

var (
	_ repository.AdminRepository        = (*AdminRepository)(nil)
	_ repository.DoctorRepository       = (*DoctorRepository)(nil)
	_ repository.AppointmentRepository  = (*AppointmentRepository)(nil)
	_ repository.PrescriptionRepository = (*PrescriptionRepository)(nil)
	_ repository.ReviewRepository       = (*ReviewRepository)(nil)
	_ repository.PatientRepository      = (*PatientRepository)(nil)
)
