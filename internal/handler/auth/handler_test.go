package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/repository/memory"
	"github.com/jwalitptl/clinic-console/internal/repository/rest"
	"github.com/jwalitptl/clinic-console/internal/repository/rest/resttest"
	"github.com/jwalitptl/clinic-console/internal/service/auth"
	"github.com/jwalitptl/clinic-console/internal/service/shell"
	pkgauth "github.com/jwalitptl/clinic-console/pkg/auth"
	"github.com/jwalitptl/clinic-console/pkg/httputil"
)

func setup(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := resttest.NewServer(t)
	srv.Seed(rest.CollectionAdmins, model.Admin{ID: "a1", Email: "admin@clinic.in", Password: "admin123"})
	srv.Seed(rest.CollectionDoctors, model.Doctor{ID: "d7", Name: "Dr. Rao", Email: "rao@clinic.in", Password: "doc123"})

	client := rest.NewClient(rest.Config{BaseURL: srv.URL}, nil)
	svc := auth.NewService(
		rest.NewAdminRepository(client),
		rest.NewDoctorRepository(client),
		memory.NewTokenRepository(time.Minute),
		pkgauth.NewJWTService(pkgauth.Config{Secret: "test-secret", TTL: time.Hour}, nil),
		nil,
	)

	engine := gin.New()
	NewHandler(svc, shell.NewService(svc), CookieConfig{MaxAge: time.Hour}).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func do(engine *gin.Engine, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func cookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type envelope struct {
	httputil.Response
	Data json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestLoginSetsRoleCookie(t *testing.T) {
	engine := setup(t)

	w := do(engine, http.MethodPost, "/api/v1/auth/login", model.LoginRequest{Role: "Admin", Email: "admin@clinic.in", Password: "admin123"})
	require.Equal(t, http.StatusOK, w.Code)

	env := decode(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, "Admin Login Successful", env.Message)
	var res model.LoginResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "/admin-dashboard", res.Redirect)
	assert.Equal(t, model.ID("a1"), res.Subject)

	c := cookie(w, "aToken")
	require.NotNil(t, c)
	assert.Equal(t, res.Token, c.Value)
	assert.True(t, c.HttpOnly)
	assert.Nil(t, cookie(w, "doctorToken"))
}

func TestLoginFailures(t *testing.T) {
	engine := setup(t)

	w := do(engine, http.MethodPost, "/api/v1/auth/login", model.LoginRequest{Role: "doctor", Email: "rao@clinic.in", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, auth.MsgInvalidCredentials, env.Error.Message)
	assert.Nil(t, cookie(w, "doctorToken"))

	w = do(engine, http.MethodPost, "/api/v1/auth/login", model.LoginRequest{Role: "doctor", Email: "rao@clinic.in"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, auth.MsgMissingCredentials, decode(t, w).Error.Message)
}

func TestShellAndLogout(t *testing.T) {
	engine := setup(t)

	w := do(engine, http.MethodGet, "/api/v1/shell", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var layout shell.Layout
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &layout))
	assert.False(t, layout.Authenticated)
	assert.Equal(t, []string{"/"}, layout.Routes)

	login := do(engine, http.MethodPost, "/api/v1/auth/login", model.LoginRequest{Role: "doctor", Email: "rao@clinic.in", Password: "doc123"})
	require.Equal(t, http.StatusOK, login.Code)
	session := cookie(login, "doctorToken")
	require.NotNil(t, session)

	w = do(engine, http.MethodGet, "/api/v1/shell", nil, session)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &layout))
	assert.True(t, layout.Authenticated)
	assert.Equal(t, model.RoleDoctor, layout.Role)
	assert.Contains(t, layout.Routes, "/doctor-calender")

	w = do(engine, http.MethodPost, "/api/v1/auth/logout", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := cookie(w, "doctorToken")
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.MaxAge < 0)
	require.NotNil(t, cookie(w, "aToken"))

	w = do(engine, http.MethodGet, "/api/v1/shell", nil, session)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &layout))
	assert.False(t, layout.Authenticated)
}
