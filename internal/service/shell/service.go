// Package shell decides which console a visitor sees: the login screen or
// one role's navigation and routes.
package shell

import (
	"context"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/service/auth"
)

const (
	ViewLogin  = "login"
	ViewAdmin  = "admin"
	ViewDoctor = "doctor"
)

type NavItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

type Layout struct {
	Authenticated bool       `json:"authenticated"`
	Role          model.Role `json:"role,omitempty"`
	Subject       model.ID   `json:"subject,omitempty"`
	View          string     `json:"view"`
	Navigation    []NavItem  `json:"navigation"`
	Routes        []string   `json:"routes"`
}

var (
	adminNav = []NavItem{
		{Label: "Dashboard", Path: "/admin-dashboard"},
		{Label: "Appointments", Path: "/all-apointments"},
		{Label: "Add Doctor", Path: "/add-doctor"},
		{Label: "Doctors List", Path: "/doctor-list"},
	}
	doctorNav = []NavItem{
		{Label: "Dashboard", Path: "/doctor-dashboard"},
		{Label: "Appointments", Path: "/doctor-appointments"},
		{Label: "Profile", Path: "/doctor-profile"},
		{Label: "Calender", Path: "/doctor-calender"},
		{Label: "Prescriptions", Path: "/doctor-prescriptions"},
		{Label: "Reviews", Path: "/doctor-reviews"},
	}
)

// MedicalHistoryRoute is reachable from a doctor's appointment list but has
// no navigation entry.
const MedicalHistoryRoute = "/medical-history"

type SessionResolver interface {
	Sessions(ctx context.Context, tokens map[model.Role]string) []auth.Session
}

type Service struct {
	sessions SessionResolver
}

func NewService(sessions SessionResolver) *Service {
	return &Service{sessions: sessions}
}

// Layout resolves the presented session markers to a layout.
func (s *Service) Layout(ctx context.Context, tokens map[model.Role]string) Layout {
	return Resolve(s.sessions.Sessions(ctx, tokens))
}

// Resolve picks the layout for the given valid sessions. With both roles
// present the most recently issued session wins; equal issue times go to
// the admin.
func Resolve(sessions []auth.Session) Layout {
	active, ok := pick(sessions)
	if !ok {
		return Layout{
			View:       ViewLogin,
			Navigation: []NavItem{},
			Routes:     []string{"/"},
		}
	}

	layout := Layout{
		Authenticated: true,
		Role:          active.Role,
		Subject:       active.Subject,
	}
	switch active.Role {
	case model.RoleDoctor:
		layout.View = ViewDoctor
		layout.Navigation = append([]NavItem(nil), doctorNav...)
		layout.Routes = append(paths(doctorNav), MedicalHistoryRoute)
	default:
		layout.View = ViewAdmin
		layout.Navigation = append([]NavItem(nil), adminNav...)
		layout.Routes = paths(adminNav)
	}
	return layout
}

func pick(sessions []auth.Session) (auth.Session, bool) {
	var best auth.Session
	found := false
	for _, s := range sessions {
		if !found || newer(s, best) {
			best, found = s, true
		}
	}
	return best, found
}

func newer(a, b auth.Session) bool {
	at, bt := a.Claims.IssuedTime(), b.Claims.IssuedTime()
	if at.Equal(bt) {
		return a.Role == model.RoleAdmin && b.Role != model.RoleAdmin
	}
	return at.After(bt)
}

func paths(items []NavItem) []string {
	out := make([]string, 0, len(items)+1)
	for _, it := range items {
		out = append(out, it.Path)
	}
	return out
}
