package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/core/validation"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

var errUsernameTaken = domain.FieldError{Field: validation.FieldUsername, Message: "username already exists!"}

type UserService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	issuer ports.TokenIssuer
	ids    ports.IDGenerator
	now    func() time.Time
}

func NewUserService(users ports.UserRepository, hasher ports.PasswordHasher, issuer ports.TokenIssuer, ids ports.IDGenerator) *UserService {
	return &UserService{
		users:  users,
		hasher: hasher,
		issuer: issuer,
		ids:    ids,
		now:    time.Now,
	}
}

// Register creates an account. A taken username is reported as a field error
// together with any other validation problems.
func (s *UserService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	fields := validation.Registration(username, password)
	if !hasField(fields, validation.FieldUsername) {
		_, err := s.users.GetUser(ctx, username)
		switch {
		case err == nil:
			fields = append(fields, errUsernameTaken)
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("lookup user: %w", err)
		}
	}
	if err := domain.NewValidationError(fields); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.ids.NextID()
	if err != nil {
		return nil, fmt.Errorf("next user id: %w", err)
	}

	user := &domain.User{
		ID:           id,
		Username:     username,
		PasswordHash: hash,
		CreatedLinks: []string{},
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.NewValidationError([]domain.FieldError{errUsernameTaken})
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Authenticate verifies credentials and issues an access token.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (string, error) {
	if err := domain.NewValidationError(validation.Login(username, password)); err != nil {
		return "", err
	}

	user, err := s.users.GetUser(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.Username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func hasField(fields []domain.FieldError, name string) bool {
	for _, f := range fields {
		if f.Field == name {
			return true
		}
	}
	return false
}

// Ensure interface compliance
var _ ports.UserService = (*UserService)(nil)
