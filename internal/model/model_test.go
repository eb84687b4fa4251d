package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDAcceptsStringsAndNumbers(t *testing.T) {
	var rec struct {
		ID       ID `json:"id"`
		DoctorID ID `json:"doctorId"`
		Missing  ID `json:"missing"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id": 12, "doctorId": "a1b2", "missing": null}`), &rec))

	assert.Equal(t, ID("12"), rec.ID)
	assert.Equal(t, ID("a1b2"), rec.DoctorID)
	assert.True(t, rec.Missing.IsZero())

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"12","doctorId":"a1b2","missing":""}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"id": {}}`), &rec))
}

func TestFlexPreservesForm(t *testing.T) {
	var d Doctor
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Dr. Rao","fees":500,"experience":"4 Years"}`), &d))

	assert.Equal(t, "500", d.Fees.String())
	fees, ok := d.Fees.Float()
	assert.True(t, ok)
	assert.Equal(t, 500.0, fees)
	_, ok = d.Experience.Float()
	assert.False(t, ok)

	out, err := json.Marshal(d)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &raw))
	assert.Equal(t, 500.0, raw["fees"])
	assert.Equal(t, "4 Years", raw["experience"])
	assert.NotContains(t, raw, "password")
}

func TestParseAppointmentStatus(t *testing.T) {
	st, ok := ParseAppointmentStatus("completed")
	assert.True(t, ok)
	assert.Equal(t, AppointmentStatusCompleted, st)

	_, ok = ParseAppointmentStatus("Archived")
	assert.False(t, ok)

	assert.True(t, AppointmentStatus("PENDING").Is(AppointmentStatusPending))
	assert.False(t, AppointmentStatus("Done").Valid())
}

func TestAppointmentHelpers(t *testing.T) {
	a := Appointment{Diagnoses: "Fever, Cough ,,  ", Status: ""}
	assert.Equal(t, []string{"Fever", "Cough"}, a.DiagnosisList())
	assert.Equal(t, "Unpaid", a.PaymentStatus())
	assert.False(t, a.Paid())

	a.Status = PaymentStatusPaid
	assert.True(t, a.Paid())
	assert.Equal(t, "Paid", a.PaymentStatus())
}

func TestPrescriptionMatches(t *testing.T) {
	p := Prescription{
		PatientName: "Anita Sharma",
		Prescriptions: []PrescriptionLine{
			{Medicine: "Paracetamol", Dosage: "500mg", Duration: "5 days", Interval: "twice daily"},
		},
	}

	assert.True(t, p.Matches(""))
	assert.True(t, p.Matches("sharma"))
	assert.True(t, p.Matches("PARA"))
	assert.False(t, p.Matches("ibuprofen"))
	assert.Equal(t, "Paracetamol - 500mg - 5 days - twice daily", p.Prescriptions[0].String())
}

func TestRole(t *testing.T) {
	r, ok := ParseRole(" Doctor ")
	require.True(t, ok)
	assert.Equal(t, RoleDoctor, r)
	assert.Equal(t, "doctors", r.Collection())
	assert.Equal(t, "doctorToken", r.CookieName())
	assert.Equal(t, "/doctor-dashboard", r.Home())

	assert.Equal(t, "admins", RoleAdmin.Collection())
	assert.Equal(t, "aToken", RoleAdmin.CookieName())
	assert.Equal(t, "/admin-dashboard", RoleAdmin.Home())

	_, ok = ParseRole("nurse")
	assert.False(t, ok)
}

func TestTemporaryImageRef(t *testing.T) {
	assert.True(t, IsTemporaryImageRef("blob:http://localhost:5173/1f2e"))
	assert.False(t, IsTemporaryImageRef("https://cdn.example.com/d.png"))
}
