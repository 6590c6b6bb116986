package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tienda/internal/domain"
	"github.com/prn-tf/tienda/internal/metrics"
	"github.com/prn-tf/tienda/internal/pkg/credential"
	"github.com/prn-tf/tienda/internal/repository"
)

// UserService handles registration and authentication.
type UserService struct {
	userRepo repository.UserRepository
	hasher   credential.Hasher
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, hasher credential.Hasher, m *metrics.Metrics, logger zerolog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
		metrics:  m,
		logger:   logger.With().Str("service", "user").Logger(),
	}
}

// RegisterInput contains the data needed to register a user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// RegisterOutput contains the result of a registration.
type RegisterOutput struct {
	User *domain.User
}

// Register creates a new user. Duplicate emails are rejected by the store
// and reported as ErrEmailAlreadyRegistered.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error) {
	if err := validateRegisterInput(input); err != nil {
		s.metrics.Registrations.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, err
	}

	record, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		s.metrics.Registrations.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user := domain.NewUser(input.Name, input.Email, record)

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			s.logger.Info().Str("email", user.Email).Msg("registration rejected, email already registered")
			s.metrics.Registrations.WithLabelValues(metrics.OutcomeRejected).Inc()
			return nil, fmt.Errorf("%w: %s", ErrEmailAlreadyRegistered, user.Email)
		}
		s.logger.Error().Err(err).Str("email", user.Email).Msg("failed to create user")
		s.metrics.Registrations.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("email", user.Email).
		Msg("user registered")
	s.metrics.Registrations.WithLabelValues(metrics.OutcomeSuccess).Inc()

	return &RegisterOutput{User: user}, nil
}

func validateRegisterInput(input RegisterInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(input.Email) == "" {
		return ErrMissingEmail
	}
	if strings.TrimSpace(input.Password) == "" {
		return ErrMissingPassword
	}
	return nil
}

// Authenticate verifies credentials and returns the user.
// An unknown email and a wrong password both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Debug().Str("email", email).Msg("user not found during authentication")
			s.metrics.Authentications.WithLabelValues(metrics.OutcomeRejected).Inc()
			return nil, ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Str("email", email).Msg("failed to look up user")
		s.metrics.Authentications.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !s.hasher.Verify(user.CredentialRecord, password) {
		s.logger.Debug().Str("email", email).Msg("invalid password during authentication")
		s.metrics.Authentications.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, ErrInvalidCredentials
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("email", user.Email).
		Msg("user authenticated")
	s.metrics.Authentications.WithLabelValues(metrics.OutcomeSuccess).Inc()

	return user, nil
}

// HasUsers reports whether anyone has registered yet.
func (s *UserService) HasUsers(ctx context.Context) (bool, error) {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count users")
		return false, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return count > 0, nil
}
