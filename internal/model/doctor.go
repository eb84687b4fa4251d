package model

import "strings"

type Address struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// Doctor is a physician record. Password is kept because the data service
// matches credentials against it; Sanitized strips it for responses.
type Doctor struct {
	ID         ID      `json:"id,omitempty"`
	Name       string  `json:"name" binding:"required"`
	Email      string  `json:"email" binding:"required,email"`
	Password   string  `json:"password,omitempty"`
	Image      string  `json:"image,omitempty"`
	Speciality string  `json:"speciality"`
	Degree     string  `json:"degree"`
	Experience Flex    `json:"experience"`
	Fees       Flex    `json:"fees"`
	About      string  `json:"about"`
	Available  bool    `json:"available"`
	Address    Address `json:"address"`
}

// Sanitized returns a copy without the password.
func (d Doctor) Sanitized() Doctor {
	d.Password = ""
	return d
}

// TemporaryImagePrefix marks browser-local object URLs that never resolve
// outside the tab that created them.
const TemporaryImagePrefix = "blob:"

// PlaceholderImage is shown when a stored image reference is temporary.
const PlaceholderImage = "https://i.ibb.co/wZYqYwDK/upload-area.png"

func IsTemporaryImageRef(ref string) bool {
	return strings.HasPrefix(strings.TrimSpace(ref), TemporaryImagePrefix)
}

// AvailabilityRequest toggles a doctor's availability flag.
type AvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}
