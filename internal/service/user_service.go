package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-online/internal/model"
	"github.com/stemsi/exstem-online/internal/repository"
)

// UserService handles registration and login.
type UserService struct {
	users repository.UserStore
	auth  *AuthService
	log   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserStore, auth *AuthService, log zerolog.Logger) *UserService {
	return &UserService{
		users: users,
		auth:  auth,
		log:   log.With().Str("component", "user_service").Logger(),
	}
}

// Register creates a student account. The very first account on a fresh
// install is promoted to administrator by the store.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	return s.create(ctx, req, false)
}

// CreateAdmin creates an administrator account directly.
func (s *UserService) CreateAdmin(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	return s.create(ctx, req, true)
}

func (s *UserService) create(ctx context.Context, req model.RegisterRequest, admin bool) (*model.User, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		IsAdmin:      admin,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info().Int("user_id", u.ID).Bool("is_admin", u.IsAdmin).Msg("User registered")
	return u, nil
}

// Login verifies credentials and issues a token.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	u, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	token, expires, err := s.auth.GenerateToken(u.ID, u.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, ExpiresAt: expires, User: *u}, nil
}

// GetByID loads a user.
func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	return s.users.GetUserByID(ctx, id)
}
