package service

import (
	"log/slog"

	"github.com/yourorg/taskboard/internal/domain"
	"github.com/yourorg/taskboard/internal/observability/metrics"
	"github.com/yourorg/taskboard/internal/security/auth"
)

// UserService orchestrates registration and login over the user directory
// and the credential utilities. It holds no state of its own.
type UserService struct {
	users  domain.UserRepository
	tokens *auth.TokenManager
	logger *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(users domain.UserRepository, tokens *auth.TokenManager, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}

	return &UserService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// AuthPayload is the result of a successful registration or login.
type AuthPayload struct {
	Token string             `json:"token"`
	User  *domain.PublicUser `json:"user"`
}

// Register creates a new account and signs the user in.
func (s *UserService) Register(username, email, password string) (*AuthPayload, error) {
	existing, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.ObserveAuth("register", "conflict")
		return nil, domain.ErrUserAlreadyExists
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, domain.NewError(domain.CodeInternalError, "Failed to register user")
	}

	user, err := s.users.Create(username, email, hash)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error("failed to issue token", slog.String("error", err.Error()))
		return nil, domain.NewError(domain.CodeInternalError, "Failed to register user")
	}

	s.logger.Info("new user registered", slog.String("user_id", user.ID), slog.String("email", user.Email))
	metrics.ObserveAuth("register", "success")

	return &AuthPayload{Token: token, User: user.Public()}, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password are deliberately indistinguishable.
func (s *UserService) Login(email, password string) (*AuthPayload, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		metrics.ObserveAuth("login", "failure")
		return nil, domain.ErrInvalidCredentials
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		metrics.ObserveAuth("login", "failure")
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error("failed to issue token", slog.String("error", err.Error()))
		return nil, domain.NewError(domain.CodeInternalError, "Failed to log in")
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID), slog.String("email", user.Email))
	metrics.ObserveAuth("login", "success")

	return &AuthPayload{Token: token, User: user.Public()}, nil
}

// GetByID resolves a public user view, or (nil, nil) when absent. Callers
// are trusted; this backs session identity resolution, not end-user lookups.
func (s *UserService) GetByID(id string) (*domain.PublicUser, error) {
	user, err := s.users.FindByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return user.Public(), nil
}
