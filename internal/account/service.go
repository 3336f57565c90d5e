// Package account registers users, verifies credentials and issues access tokens.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"hrdesk/internal/apperr"
	"hrdesk/internal/auth"
	"hrdesk/internal/clock"
	"hrdesk/internal/crypto"
	"hrdesk/internal/model"
	"hrdesk/internal/store"
)

var (
	ErrMissingRegistrationField = apperr.New(apperr.KindValidation, "missing_required_field", "name, email, and password are required")
	ErrMissingCredentials       = apperr.New(apperr.KindValidation, "missing_credentials", "Email and password are required")
	ErrInvalidEmail             = apperr.New(apperr.KindValidation, "invalid_email", "Email address is not valid")
	ErrInvalidRole              = apperr.New(apperr.KindValidation, "invalid_role", "Role must be one of ADMIN, EMPLOYEE, HR_MANAGER")
	ErrEmailTaken               = apperr.New(apperr.KindConflict, "email_taken", "Email already registered")
	ErrInvalidCredentials       = apperr.New(apperr.KindAuthentication, "invalid_credentials", "Invalid credentials")
	ErrUserNotFound             = apperr.New(apperr.KindNotFound, "user_not_found", "User not found")
)

type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type Service struct {
	users     store.Users
	companies store.Companies
	tokens    TokenConfig
	clock     clock.Clock
}

type Backend interface {
	store.Users
	store.Companies
}

func NewService(backend Backend, tokens TokenConfig, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{users: backend, companies: backend, tokens: tokens, clock: clk}
}

type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	Role        string
	CompanyName string
	Phone       string
	Position    string
}

// Register creates an account. The role defaults to ADMIN: the person registering a
// company administers it. A company row is created on first use of its name.
func (s *Service) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return model.User{}, ErrMissingRegistrationField
	}
	if !strings.Contains(email, "@") {
		return model.User{}, ErrInvalidEmail
	}
	role := model.RoleAdmin
	if strings.TrimSpace(in.Role) != "" {
		parsed, ok := model.ParseRole(in.Role)
		if !ok {
			return model.User{}, ErrInvalidRole
		}
		role = parsed
	}
	position := strings.TrimSpace(in.Position)
	if position == "" {
		position = defaultPosition(role)
	}

	user, err := s.newUser(name, email, in.Password, role, position)
	if err != nil {
		return model.User{}, err
	}
	user.CompanyName = optional(in.CompanyName)
	user.Phone = optional(in.Phone)

	var company *model.Company
	if user.CompanyName != nil {
		company = &model.Company{
			ID:          uuid.NewString(),
			Name:        *user.CompanyName,
			OwnerUserID: user.ID,
			CreatedAt:   user.CreatedAt,
		}
	}
	if err := s.users.CreateUser(ctx, user, company); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("register: %w", err)
	}
	return user, nil
}

// Login verifies the password and returns a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, model.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", model.User{}, ErrMissingCredentials
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return "", model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", model.User{}, fmt.Errorf("login lookup: %w", err)
	}
	if err := crypto.CheckPassword(user.PasswordHash, password); err != nil {
		return "", model.User{}, ErrInvalidCredentials
	}
	token, err := auth.NewAccessToken(s.tokens.Secret, s.tokens.Issuer, s.tokens.TTL, auth.Claims{
		UserID: user.ID,
		Role:   string(user.Role),
	})
	if err != nil {
		return "", model.User{}, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// Authenticate validates a bearer token.
func (s *Service) Authenticate(token string) (*auth.Claims, error) {
	if token == "" {
		return nil, apperr.ErrMissingToken
	}
	claims, err := auth.ParseToken(s.tokens.Secret, s.tokens.Issuer, token)
	if err != nil {
		return nil, apperr.ErrInvalidToken.With(err)
	}
	return claims, nil
}

func (s *Service) Me(ctx context.Context, userID string) (model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

type EmployeeInput struct {
	Name     string
	Email    string
	Password string
	Position string
	Phone    string
}

// CreateEmployee adds an EMPLOYEE account to the acting admin's company.
func (s *Service) CreateEmployee(ctx context.Context, actorID string, in EmployeeInput) (model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return model.User{}, ErrMissingRegistrationField
	}
	if !strings.Contains(email, "@") {
		return model.User{}, ErrInvalidEmail
	}
	position := strings.TrimSpace(in.Position)
	if position == "" {
		position = "Employee"
	}

	user, err := s.newUser(name, email, in.Password, model.RoleEmployee, position)
	if err != nil {
		return model.User{}, err
	}
	user.Phone = optional(in.Phone)
	if actor, err := s.users.GetUserByID(ctx, actorID); err == nil {
		user.CompanyName = actor.CompanyName
	} else if !errors.Is(err, store.ErrNotFound) {
		return model.User{}, fmt.Errorf("get creator: %w", err)
	}

	if err := s.users.CreateUser(ctx, user, nil); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("create employee: %w", err)
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Service) ListCompanies(ctx context.Context) ([]model.Company, error) {
	companies, err := s.companies.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

func (s *Service) newUser(name, email, password string, role model.Role, position string) (model.User, error) {
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	return model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Position:     position,
		CreatedAt:    s.clock.Now().UTC(),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func defaultPosition(role model.Role) string {
	switch role {
	case model.RoleAdmin:
		return "Admin"
	case model.RoleHRManager:
		return "HR Manager"
	default:
		return "Employee"
	}
}
