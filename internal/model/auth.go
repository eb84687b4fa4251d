package model

import "strings"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDoctor Role = "doctor"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleDoctor:
		return RoleDoctor, true
	}
	return "", false
}

// Collection is the data service collection holding credentials for r.
func (r Role) Collection() string {
	if r == RoleDoctor {
		return "doctors"
	}
	return "admins"
}

// CookieName is the session marker name for r.
func (r Role) CookieName() string {
	if r == RoleDoctor {
		return "doctorToken"
	}
	return "aToken"
}

// Home is the route shown after login.
func (r Role) Home() string {
	if r == RoleDoctor {
		return "/doctor-dashboard"
	}
	return "/admin-dashboard"
}

type Admin struct {
	ID       ID     `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

type LoginRequest struct {
	Role     string `json:"role"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Role     Role     `json:"role"`
	Subject  ID       `json:"subject"`
	Token    string   `json:"token"`
	Redirect string   `json:"redirect"`
	Message  string   `json:"-"`
	Notices  []string `json:"-"`
}

type LogoutResult struct {
	Redirect string `json:"redirect"`
}
