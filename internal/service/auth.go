package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/pkordes/room-reservation/internal/auth"
	"github.com/pkordes/room-reservation/internal/domain"
	"github.com/pkordes/room-reservation/internal/repo"
)

const minPasswordLen = 6

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(email string, role domain.Role) (string, time.Time, error)
}

// Registration is the input to AuthService.Register.
type Registration struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

// AuthService implements account registration, login and profile upkeep.
type AuthService struct {
	users  repo.UserRepo
	tokens TokenIssuer
}

// NewAuthService constructs an AuthService.
func NewAuthService(users repo.UserRepo, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register creates a user account with the user role.
// Returns domain.ErrConflict if the email is already registered.
func (s *AuthService) Register(ctx context.Context, in Registration) (domain.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validateRegistration(in); err != nil {
		return domain.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.Register: %w", err)
	}
	u, err := s.users.Create(ctx, domain.User{
		Email:        in.Email,
		FullName:     in.FullName,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         domain.RoleUser,
		PasswordHash: hash,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.Register: %w", err)
	}
	return u, nil
}

// Login checks credentials and issues an access token.
// Unknown emails and wrong passwords both yield domain.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		return Session{}, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)
	}
	if err != nil {
		return Session{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return Session{}, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)
	}

	token, exp, err := s.tokens.Issue(u.Email, u.Role)
	if err != nil {
		return Session{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}
	return Session{Token: token, ExpiresAt: exp, User: u}, nil
}

// Profile returns the caller's account.
func (s *AuthService) Profile(ctx context.Context, caller domain.Caller) (domain.User, error) {
	u, err := s.users.GetByEmail(ctx, caller.Email)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.Profile: %w", err)
	}
	return u, nil
}

// UpdateProfile changes the caller's full name and phone.
func (s *AuthService) UpdateProfile(ctx context.Context, caller domain.Caller, fullName, phone string) (domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return domain.User{}, fmt.Errorf("%w: full name is required", domain.ErrValidation)
	}
	u, err := s.users.UpdateProfile(ctx, domain.User{Email: caller.Email, FullName: fullName, Phone: strings.TrimSpace(phone)})
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.UpdateProfile: %w", err)
	}
	return u, nil
}

// ListUsers returns one page of accounts. Admin only.
func (s *AuthService) ListUsers(ctx context.Context, caller domain.Caller, p domain.PaginationParams) ([]domain.User, int64, error) {
	if !caller.IsAdmin() {
		return nil, 0, domain.ErrForbidden
	}
	users, total, err := s.users.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.AuthService.ListUsers: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, total, nil
}

func validateRegistration(in Registration) error {
	if _, err := mail.ParseAddress(in.Email); err != nil || !strings.Contains(in.Email, "@") {
		return fmt.Errorf("%w: email is invalid", domain.ErrValidation)
	}
	if len(in.Password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLen)
	}
	if in.FullName == "" {
		return fmt.Errorf("%w: full name is required", domain.ErrValidation)
	}
	return nil
}
