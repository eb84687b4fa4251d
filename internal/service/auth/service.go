package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/repository"
	pkgauth "github.com/jwalitptl/clinic-console/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
)

// User-facing messages.
const (
	MsgMissingCredentials = "Please enter email and password"
	MsgInvalidCredentials = "Invalid credentials"
	MsgLoginFailed        = "Login failed. Please try again."
	MsgInvalidRole        = "Please choose Admin or Doctor"
	MsgLoggedOut          = "Logged out"
)

// SessionHook is told when a session for its role starts or ends. Prime
// loads the role's state and returns one notice per failed load.
type SessionHook interface {
	Prime(ctx context.Context, subject model.ID) []string
	Forget(subject model.ID)
}

// Session is an authenticated console session.
type Session struct {
	Role    model.Role
	Subject model.ID
	Claims  *pkgauth.Claims
}

type Service struct {
	admins  repository.AdminRepository
	doctors repository.DoctorRepository
	tokens  repository.TokenRepository
	jwt     pkgauth.JWTService
	metrics *metrics.Metrics

	mu    sync.RWMutex
	hooks map[model.Role]SessionHook
}

func NewService(
	admins repository.AdminRepository,
	doctors repository.DoctorRepository,
	tokens repository.TokenRepository,
	jwt pkgauth.JWTService,
	m *metrics.Metrics,
) *Service {
	return &Service{
		admins:  admins,
		doctors: doctors,
		tokens:  tokens,
		jwt:     jwt,
		metrics: m,
		hooks:   make(map[model.Role]SessionHook),
	}
}

func (s *Service) RegisterHook(role model.Role, hook SessionHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[role] = hook
}

func (s *Service) hook(role model.Role) SessionHook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hooks[role]
}

// Login matches the credentials against the role's collection and issues a
// session token for the first matching record.
func (s *Service) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResult, error) {
	role, ok := model.ParseRole(req.Role)
	if !ok {
		return nil, apperrors.BadRequest(MsgInvalidRole, nil)
	}
	if req.Email == "" || req.Password == "" {
		return nil, apperrors.BadRequest(MsgMissingCredentials, nil)
	}

	logger := zerolog.Ctx(ctx).With().Str("role", string(role)).Logger()

	subject, err := s.lookup(ctx, role, req.Email, req.Password)
	if err != nil {
		s.countLogin(role, "error")
		logger.Error().Err(err).Msg("credential lookup failed")
		return nil, apperrors.Upstream(MsgLoginFailed, err)
	}
	if subject.IsZero() {
		s.countLogin(role, "invalid")
		logger.Info().Msg("login rejected")
		return nil, apperrors.Unauthorized(MsgInvalidCredentials, nil)
	}

	token, _, err := s.jwt.GenerateToken(subject.String(), string(role))
	if err != nil {
		s.countLogin(role, "error")
		return nil, apperrors.Internal(err)
	}
	s.countLogin(role, "success")
	logger.Info().Str("subject", subject.String()).Msg("login succeeded")

	result := &model.LoginResult{
		Role:     role,
		Subject:  subject,
		Token:    token,
		Redirect: role.Home(),
		Message:  loginMessage(role),
	}
	if h := s.hook(role); h != nil {
		result.Notices = h.Prime(ctx, subject)
	}
	return result, nil
}

func loginMessage(role model.Role) string {
	if role == model.RoleDoctor {
		return "Doctor Login Successful"
	}
	return "Admin Login Successful"
}

func (s *Service) lookup(ctx context.Context, role model.Role, email, password string) (model.ID, error) {
	switch role {
	case model.RoleDoctor:
		doctors, err := s.doctors.FindByCredentials(ctx, email, password)
		if err != nil || len(doctors) == 0 {
			return "", err
		}
		return doctors[0].ID, nil
	default:
		admins, err := s.admins.FindByCredentials(ctx, email, password)
		if err != nil || len(admins) == 0 {
			return "", err
		}
		return admins[0].ID, nil
	}
}

// Authenticate verifies token for role and that it has not been revoked.
func (s *Service) Authenticate(ctx context.Context, token string, role model.Role) (*Session, error) {
	sess, err := s.verify(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess.Role != role {
		return nil, apperrors.Forbidden("", pkgauth.ErrWrongRole)
	}
	return sess, nil
}

func (s *Service) verify(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("missing session token", nil)
	}
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid session token", err)
	}
	role, ok := model.ParseRole(claims.Role)
	if !ok {
		return nil, apperrors.Unauthorized("invalid session token", pkgauth.ErrInvalidToken)
	}

	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to check revocation: %w", err))
	}
	if revoked {
		return nil, apperrors.Unauthorized("session has ended", nil)
	}

	return &Session{Role: role, Subject: model.ID(claims.Subject), Claims: claims}, nil
}

// Sessions returns the valid sessions among the presented tokens. Invalid or
// revoked tokens are skipped.
func (s *Service) Sessions(ctx context.Context, tokens map[model.Role]string) []Session {
	var out []Session
	for _, role := range []model.Role{model.RoleAdmin, model.RoleDoctor} {
		token := tokens[role]
		if token == "" {
			continue
		}
		sess, err := s.verify(ctx, token)
		if err != nil || sess.Role != role {
			continue
		}
		out = append(out, *sess)
	}
	return out
}

// Logout revokes every presented token and drops the state of every
// subject they name. Tokens that no longer verify are ignored.
func (s *Service) Logout(ctx context.Context, tokens []string) *model.LogoutResult {
	logger := zerolog.Ctx(ctx)
	for _, token := range tokens {
		if token == "" {
			continue
		}
		claims, err := s.jwt.ValidateToken(token)
		if err != nil {
			continue
		}
		role, _ := model.ParseRole(claims.Role)

		if err := s.tokens.Revoke(ctx, claims.ID, claims.ExpiresTime()); err != nil {
			logger.Error().Err(err).Str("role", claims.Role).Msg("failed to revoke session token")
		} else if s.metrics != nil {
			s.metrics.Revocations.WithLabelValues(claims.Role).Inc()
		}
		if h := s.hook(role); h != nil {
			h.Forget(model.ID(claims.Subject))
		}
	}
	return &model.LogoutResult{Redirect: "/"}
}

func (s *Service) countLogin(role model.Role, outcome string) {
	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues(string(role), outcome).Inc()
	}
}
