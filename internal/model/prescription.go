package model

import "strings"

type PrescriptionLine struct {
	Medicine string `json:"medicine" binding:"required"`
	Dosage   string `json:"dosage"`
	Duration string `json:"duration"`
	Interval string `json:"interval"`
}

// String renders "medicine - dosage - duration - interval".
func (l PrescriptionLine) String() string {
	return strings.Join([]string{l.Medicine, l.Dosage, l.Duration, l.Interval}, " - ")
}

// Prescription is a doctor-authored record. DoctorID is always the author's
// session subject. Datetime is an RFC 3339 timestamp.
type Prescription struct {
	ID            ID                 `json:"id,omitempty"`
	DoctorID      ID                 `json:"doctorId"`
	PatientName   string             `json:"patientName" binding:"required"`
	Diagnoses     string             `json:"diagnoses,omitempty"`
	Allergies     string             `json:"allergies,omitempty"`
	Notes         string             `json:"notes,omitempty"`
	Prescriptions []PrescriptionLine `json:"prescriptions" binding:"dive"`
	Datetime      string             `json:"datetime,omitempty"`
}

// Matches reports whether q occurs, case-insensitively, in the patient name
// or in any line's medicine.
func (p Prescription) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.PatientName), q) {
		return true
	}
	for _, l := range p.Prescriptions {
		if strings.Contains(strings.ToLower(l.Medicine), q) {
			return true
		}
	}
	return false
}

// PrescribeRequest writes a prescription record for an appointment and
// attaches its lines to the appointment.
type PrescribeRequest struct {
	Prescriptions []PrescriptionLine `json:"prescriptions" binding:"required,min=1,dive"`
	Notes         string             `json:"notes"`
}
