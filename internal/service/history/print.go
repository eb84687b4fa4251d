package history

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/jwalitptl/clinic-console/internal/model"
)

type Letterhead struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
}

var ClinicLetterhead = Letterhead{
	Name:    "Mediflow Healthcare Pvt. Ltd.",
	Address: "123 Health Street, 2nd Floor, tirupati, Andhra Pradesh - 517501",
	Contact: "+91 98765 43210 | support@mediflow.com",
}

type PrintEntry struct {
	ID            model.ID `json:"id"`
	Datetime      string   `json:"datetime"`
	Doctor        string   `json:"doctor"`
	Status        string   `json:"status"`
	Diagnoses     []string `json:"diagnoses"`
	Prescriptions []string `json:"prescriptions"`
}

// PrintView is the printable medical history.
type PrintView struct {
	Letterhead         Letterhead    `json:"letterhead"`
	Patient            model.Patient `json:"patient"`
	Entries            []PrintEntry  `json:"entries"`
	TotalAppointments  int           `json:"totalAppointments"`
	TotalPrescriptions int           `json:"totalPrescriptions"`
	From               string        `json:"from,omitempty"`
	To                 string        `json:"to,omitempty"`
}

func NewPrintView(r *Report) *PrintView {
	v := &PrintView{
		Letterhead:         ClinicLetterhead,
		Patient:            r.Patient,
		Entries:            make([]PrintEntry, 0, len(r.Appointments)),
		TotalAppointments:  r.TotalAppointments,
		TotalPrescriptions: r.TotalPrescriptions,
		From:               r.From,
		To:                 r.To,
	}
	for _, a := range r.Appointments {
		e := PrintEntry{
			ID:            a.ID,
			Datetime:      a.Datetime,
			Doctor:        a.DoctorName,
			Status:        string(a.AppStatus),
			Diagnoses:     a.DiagnosisList(),
			Prescriptions: make([]string, 0, len(a.Prescription)),
		}
		for _, line := range a.Prescription {
			e.Prescriptions = append(e.Prescriptions, line.String())
		}
		v.Entries = append(v.Entries, e)
	}
	return v
}

// Summary is the counts line shown above the appointment list.
func (v *PrintView) Summary() string {
	return fmt.Sprintf("Total Appointments: %d | Total Prescriptions: %d", v.TotalAppointments, v.TotalPrescriptions)
}

// RenderPDF writes the view as an A4 document.
func RenderPDF(w io.Writer, v *PrintView) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle("Medical History - "+v.Patient.Name, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Letterhead
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(67, 56, 202)
	pdf.CellFormat(0, 8, tr(v.Letterhead.Name), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(75, 85, 99)
	pdf.CellFormat(0, 6, tr(v.Letterhead.Address), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, tr(v.Letterhead.Contact), "B", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(67, 56, 202)
	pdf.CellFormat(0, 10, "Medical History", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 7, tr(v.Patient.Name), "", 1, "C", false, 0, "")
	if v.From != "" || v.To != "" {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("From %s to %s", orOpen(v.From), orOpen(v.To))), "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)

	// Patient panel
	pdf.SetFillColor(238, 242, 255)
	pdf.SetFont("Arial", "B", 10)
	for _, label := range []string{"Age", "Gender", "Blood Group"} {
		pdf.CellFormat(63, 7, label, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 11)
	for _, value := range []string{v.Patient.Age.String(), v.Patient.Gender, v.Patient.BloodGroup} {
		pdf.CellFormat(63, 8, tr(value), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, v.Summary(), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if len(v.Entries) == 0 {
		pdf.SetFont("Arial", "", 12)
		pdf.SetTextColor(107, 114, 128)
		pdf.CellFormat(0, 10, MsgNoAppointmentsInRange, "", 1, "C", false, 0, "")
	}
	for _, e := range v.Entries {
		addEntry(pdf, tr, e)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render medical history: %w", err)
	}
	return nil
}

func addEntry(pdf *gofpdf.Fpdf, tr func(string) string, e PrintEntry) {
	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(67, 56, 202)
	pdf.CellFormat(130, 8, tr(e.Datetime), "LT", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 8, tr(e.Status), "TR", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, tr("Doctor: "+e.Doctor), "LR", 1, "L", false, 0, "")

	section(pdf, tr, "Diagnoses", e.Diagnoses, "No diagnoses")
	section(pdf, tr, "Prescriptions", e.Prescriptions, "No prescriptions.")
	pdf.CellFormat(0, 2, "", "LRB", 1, "", false, 0, "")
	pdf.Ln(4)
}

func section(pdf *gofpdf.Fpdf, tr func(string) string, title string, items []string, empty string) {
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, title, "LR", 1, "L", false, 0, "")
	if len(items) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 6, empty, "LR", 1, "L", false, 0, "")
		return
	}
	pdf.SetFont("Arial", "", 10)
	for _, item := range items {
		pdf.CellFormat(0, 6, tr("- "+item), "LR", 1, "L", false, 0, "")
	}
}

func orOpen(date string) string {
	if date == "" {
		return "..."
	}
	return date
}
