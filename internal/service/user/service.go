// Package user implements account lifecycle: registration, password login
// with JWT issuance, and profile maintenance.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/questforge/questforge/internal/domain"
)

type userRepo interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type tokenIssuer interface {
	GenerateAccessToken(userID uuid.UUID, role string) (string, error)
	AccessTTL() time.Duration
}

// AuthResult is a successful register or login outcome.
type AuthResult struct {
	User        *domain.User
	AccessToken string
	ExpiresIn   time.Duration
}

// Service implements account operations.
type Service struct {
	users    userRepo
	tokens   tokenIssuer
	log      *slog.Logger
	hashCost int
}

// NewService creates a new user service.
func NewService(log *slog.Logger, users userRepo, tokens tokenIssuer, hashCost int) *Service {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &Service{
		users:    users,
		tokens:   tokens,
		log:      log.With("service", "user"),
		hashCost: hashCost,
	}
}

// Register creates an account and logs it in.
// Returns ErrAlreadyExists if the email is taken.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.Create(ctx, &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         domain.UserRoleUser,
		Plan:         "free",
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.InfoContext(ctx, "user registered", slog.String("user_id", created.ID.String()))

	return s.issueToken(created)
}

// Login authenticates by email and password.
// Returns ErrUnauthorized for an unknown email or wrong password, without
// distinguishing the two.
func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := in.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !user.CanAuthenticate() {
		return nil, domain.ErrForbidden
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	s.log.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID.String()))

	return s.issueToken(user)
}

// Profile returns the account behind the token.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes the display name.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*domain.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.UpdateProfile(ctx, userID, in.Name)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, in ChangePasswordInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return domain.ErrUnauthorized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.log.InfoContext(ctx, "password changed", slog.String("user_id", userID.String()))
	return nil
}

func (s *Service) issueToken(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateAccessToken(user.ID, user.Role.String())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{
		User:        user,
		AccessToken: token,
		ExpiresIn:   s.tokens.AccessTTL(),
	}, nil
}
