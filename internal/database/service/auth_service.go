package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/psyflow/backend-go/internal/apperr"
	"github.com/psyflow/backend-go/internal/database/models"
	"github.com/psyflow/backend-go/internal/database/repository"
	"github.com/psyflow/backend-go/internal/ratelimit"
)

// PasswordHashCost is the bcrypt work factor for stored credentials.
const PasswordHashCost = 10

const (
	msgInvalidCredentials = "invalid email or password"
	msgTooManyAttempts    = "too many failed login attempts, try again later"
)

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	limiter  ratelimit.LoginLimiter
	logger   *slog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates a new authentication service instance
func NewAuthService(
	userRepo repository.UserRepository,
	limiter ratelimit.LoginLimiter,
	logger *slog.Logger,
) AuthService {
	return &authService{
		userRepo: userRepo,
		limiter:  limiter,
		logger:   logger,
	}
}

func (s *authService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" || email == "" || password == "" {
		return nil, apperr.Validation("name, email and password are required")
	}

	s.logger.Info("📝 [AuthService] Registration attempt", "email", email)

	// Check if email already exists
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		s.logger.Error("❌ [AuthService] Database error", "error", err)
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	if existing != nil {
		s.logger.Warn("⚠️ [AuthService] Email already registered", "email", email)
		return nil, apperr.Conflict("email is already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	if err != nil {
		s.logger.Error("❌ [AuthService] Failed to hash password", "error", err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.userRepo.Create(ctx, user, models.NewDefaultSettings()); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			s.logger.Warn("⚠️ [AuthService] Email registered concurrently", "email", email)
			return nil, apperr.Conflict("email is already registered")
		}
		s.logger.Error("❌ [AuthService] Failed to create user", "error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("✅ [AuthService] User registered successfully", "user_id", user.ID)
	return stripCredentials(user), nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	s.logger.Info("🔐 [AuthService] Login attempt", "email", email)

	key := strings.ToLower(email)
	allowed, err := s.limiter.Allow(ctx, key)
	if err != nil {
		s.logger.Warn("⚠️ [AuthService] Login limiter unavailable", "error", err)
	} else if !allowed {
		s.logger.Warn("⚠️ [AuthService] Login blocked after repeated failures", "email", email)
		return nil, apperr.Auth(msgTooManyAttempts)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Spend the same bcrypt time as a real comparison.
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			s.logger.Warn("⚠️ [AuthService] User not found", "email", email)
			return nil, s.failLogin(ctx, key)
		}
		s.logger.Error("❌ [AuthService] Database error", "error", err)
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("⚠️ [AuthService] Invalid password", "user_id", user.ID)
		return nil, s.failLogin(ctx, key)
	}

	if err := s.limiter.Reset(ctx, key); err != nil {
		s.logger.Warn("⚠️ [AuthService] Failed to reset login limiter", "error", err)
	}

	s.logger.Info("✅ [AuthService] User logged in successfully", "user_id", user.ID)
	return stripCredentials(user), nil
}

func (s *authService) failLogin(ctx context.Context, key string) error {
	if err := s.limiter.RecordFailure(ctx, key); err != nil {
		s.logger.Warn("⚠️ [AuthService] Failed to record login failure", "error", err)
	}
	return apperr.Auth(msgInvalidCredentials)
}

func (s *authService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), PasswordHashCost)
	})
	return s.dummyHash
}

func stripCredentials(user *models.User) *models.User {
	user.PasswordHash = ""
	return user
}
