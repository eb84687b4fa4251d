package model

import (
	"strings"
	"time"

	"github.com/jwalitptl/clinic-console/pkg/apptime"
)

type AppointmentStatus string

const (
	AppointmentStatusPending     AppointmentStatus = "Pending"
	AppointmentStatusConfirmed   AppointmentStatus = "Confirmed"
	AppointmentStatusCancelled   AppointmentStatus = "Cancelled"
	AppointmentStatusCompleted   AppointmentStatus = "Completed"
	AppointmentStatusRescheduled AppointmentStatus = "Rescheduled"
)

var appointmentStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusConfirmed,
	AppointmentStatusCancelled,
	AppointmentStatusCompleted,
	AppointmentStatusRescheduled,
}

// ParseAppointmentStatus matches s case-insensitively against the known statuses.
func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	for _, st := range appointmentStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

func (s AppointmentStatus) Valid() bool {
	_, ok := ParseAppointmentStatus(string(s))
	return ok
}

// Is compares statuses case-insensitively; stored values are not normalized.
func (s AppointmentStatus) Is(other AppointmentStatus) bool {
	return strings.EqualFold(string(s), string(other))
}

const PaymentStatusPaid = "Paid"

// Appointment is a booking between a patient and a doctor. Datetime uses the
// apptime encoding. Status is the payment status; AppStatus is the visit status.
type Appointment struct {
	ID                ID                 `json:"id,omitempty"`
	PatientName       string             `json:"patientName" binding:"required"`
	PatientEmail      string             `json:"patientEmail"`
	PatientPhone      string             `json:"patientPhone,omitempty"`
	PatientAddress    string             `json:"patientAddress,omitempty"`
	PatientAge        Flex               `json:"patientAge,omitempty"`
	PatientGender     string             `json:"patientGender,omitempty"`
	PatientBloodGroup string             `json:"patientBloodGroup,omitempty"`
	PatientImage      string             `json:"patientImage,omitempty"`
	DoctorID          ID                 `json:"doctorId" binding:"required"`
	DoctorName        string             `json:"doctorName"`
	Datetime          string             `json:"datetime" binding:"required,apptime"`
	AppStatus         AppointmentStatus  `json:"appstatus"`
	Status            string             `json:"status,omitempty"`
	PaymentMethod     string             `json:"paymentMethod,omitempty"`
	Diagnoses         string             `json:"diagnoses,omitempty"`
	Allergies         string             `json:"allergies,omitempty"`
	Prescription      []PrescriptionLine `json:"prescription,omitempty"`
	PrescriptionID    ID                 `json:"prescriptionId,omitempty"`
}

// When decodes Datetime in loc.
func (a Appointment) When(loc *time.Location) (time.Time, error) {
	return apptime.ParseInLocation(a.Datetime, loc)
}

// PaymentStatus defaults to "Unpaid" when the record has none.
func (a Appointment) PaymentStatus() string {
	if strings.TrimSpace(a.Status) == "" {
		return "Unpaid"
	}
	return a.Status
}

func (a Appointment) Paid() bool {
	return a.Status == PaymentStatusPaid
}

// DiagnosisList splits the free-text diagnoses on commas.
func (a Appointment) DiagnosisList() []string {
	var out []string
	for _, d := range strings.Split(a.Diagnoses, ",") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type NotesRequest struct {
	Diagnoses string `json:"diagnoses"`
	Allergies string `json:"allergies"`
}

type AttachPrescriptionRequest struct {
	Lines []PrescriptionLine `json:"prescription" binding:"dive"`
}

type MoveRequest struct {
	Start time.Time `json:"start" binding:"required"`
}
