package model

// Patient is looked up by email for the medical history report.
type Patient struct {
	ID         ID     `json:"id,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Age        Flex   `json:"age,omitempty"`
	Gender     string `json:"gender,omitempty"`
	BloodGroup string `json:"bloodGroup,omitempty"`
}
