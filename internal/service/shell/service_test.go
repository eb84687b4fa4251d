package shell

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/service/auth"
	pkgauth "github.com/jwalitptl/clinic-console/pkg/auth"
)

func session(role model.Role, subject string, issued time.Time) auth.Session {
	return auth.Session{
		Role:    role,
		Subject: model.ID(subject),
		Claims: &pkgauth.Claims{
			Role:             string(role),
			RegisteredClaims: jwt.RegisteredClaims{Subject: subject, IssuedAt: jwt.NewNumericDate(issued)},
		},
	}
}

func TestResolveLogin(t *testing.T) {
	layout := Resolve(nil)
	assert.False(t, layout.Authenticated)
	assert.Equal(t, ViewLogin, layout.View)
	assert.Equal(t, []string{"/"}, layout.Routes)
	assert.Empty(t, layout.Navigation)
}

func TestResolveAdmin(t *testing.T) {
	layout := Resolve([]auth.Session{session(model.RoleAdmin, "a1", time.Now())})

	assert.Equal(t, ViewAdmin, layout.View)
	assert.Equal(t, []string{"/admin-dashboard", "/all-apointments", "/add-doctor", "/doctor-list"}, layout.Routes)
	assert.Equal(t, "Doctors List", layout.Navigation[3].Label)
}

func TestResolveDoctor(t *testing.T) {
	layout := Resolve([]auth.Session{session(model.RoleDoctor, "d7", time.Now())})

	assert.Equal(t, ViewDoctor, layout.View)
	assert.Equal(t, model.ID("d7"), layout.Subject)
	assert.Len(t, layout.Navigation, 6)
	assert.Contains(t, layout.Routes, "/doctor-calender")
	assert.Contains(t, layout.Routes, MedicalHistoryRoute)
}

func TestResolveDualSessions(t *testing.T) {
	earlier := time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Minute)

	t.Run("newest wins", func(t *testing.T) {
		layout := Resolve([]auth.Session{
			session(model.RoleAdmin, "a1", earlier),
			session(model.RoleDoctor, "d7", later),
		})
		assert.Equal(t, model.RoleDoctor, layout.Role)

		layout = Resolve([]auth.Session{
			session(model.RoleDoctor, "d7", earlier),
			session(model.RoleAdmin, "a1", later),
		})
		assert.Equal(t, model.RoleAdmin, layout.Role)
	})

	t.Run("tie goes to admin", func(t *testing.T) {
		layout := Resolve([]auth.Session{
			session(model.RoleDoctor, "d7", earlier),
			session(model.RoleAdmin, "a1", earlier),
		})
		assert.Equal(t, model.RoleAdmin, layout.Role)
	})
}
