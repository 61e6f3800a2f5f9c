package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/threebee1/hrms-sub001/internal/auth/csrf"
	"github.com/threebee1/hrms-sub001/internal/auth/jwt"
	"github.com/threebee1/hrms-sub001/internal/auth/repository"
	"github.com/threebee1/hrms-sub001/pkg/config"
	"github.com/threebee1/hrms-sub001/pkg/errors"
	"github.com/threebee1/hrms-sub001/pkg/logger"
)

// EmployeeFinder is the lookup surface the auth flow depends on.
type EmployeeFinder interface {
	FindByEmail(ctx context.Context, email string) (*repository.Employee, error)
	FindByID(ctx context.Context, id int64) (*repository.Employee, error)
}

// AuthService handles authentication logic
type AuthService struct {
	repo       EmployeeFinder
	jwtManager *jwt.Manager
	config     *config.Config
	logger     *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(repo EmployeeFinder, jwtManager *jwt.Manager, cfg *config.Config, log *logger.Logger) *AuthService {
	return &AuthService{
		repo:       repo,
		jwtManager: jwtManager,
		config:     cfg,
		logger:     log,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	ExpiresAt   time.Time     `json:"expires_at"`
	TokenType   string        `json:"token_type"`
	CSRFToken   string        `json:"csrf_token"`
	User        *EmployeeInfo `json:"user"`
}

// EmployeeInfo represents the authenticated employee
type EmployeeInfo struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Login authenticates an employee and issues a session token. A missing
// account, wrong password and deactivated account all return the same
// credentials error so login failures do not leak which one it was.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	emp, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("employee lookup failed")
		return nil, errors.Internal("could not sign in, please try again")
	}
	if emp == nil || !emp.Active {
		return nil, errors.InvalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn().Str("email", req.Email).Msg("failed login attempt")
		return nil, errors.InvalidCredentials()
	}

	sessionID := uuid.New().String()

	token, err := s.jwtManager.Generate(&jwt.EmployeeInfo{
		ID:    emp.ID,
		Email: emp.Email,
		Name:  emp.FullName(),
		Role:  emp.Role,
	}, sessionID)
	if err != nil {
		s.logger.Error().Err(err).Msg("token generation failed")
		return nil, errors.Internal("could not sign in, please try again")
	}

	s.logger.Info().Int64("employee_id", emp.ID).Str("role", emp.Role).Msg("employee signed in")

	return &LoginResponse{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
		TokenType:   token.TokenType,
		CSRFToken:   csrf.Token(s.config.JWT.Secret, sessionID),
		User: &EmployeeInfo{
			ID:    emp.ID,
			Email: emp.Email,
			Name:  emp.FullName(),
			Role:  emp.Role,
		},
	}, nil
}

// CurrentUser returns the employee for an authenticated session.
func (s *AuthService) CurrentUser(ctx context.Context, employeeID int64) (*EmployeeInfo, error) {
	emp, err := s.repo.FindByID(ctx, employeeID)
	if err != nil {
		s.logger.Error().Err(err).Int64("employee_id", employeeID).Msg("employee lookup failed")
		return nil, errors.Internal("could not load account")
	}
	if emp == nil || !emp.Active {
		return nil, errors.Unauthorized("account is not available")
	}

	return &EmployeeInfo{
		ID:    emp.ID,
		Email: emp.Email,
		Name:  emp.FullName(),
		Role:  emp.Role,
	}, nil
}
