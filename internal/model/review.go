package model

type Review struct {
	ID          ID     `json:"id,omitempty"`
	PatientName string `json:"patientName"`
	DoctorID    ID     `json:"doctorId"`
	DoctorName  string `json:"doctorName,omitempty"`
	Rating      Flex   `json:"rating"`
	ReviewText  string `json:"reviewText"`
	CreatedAt   string `json:"createdAt"`
}
