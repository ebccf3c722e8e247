package services

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"everesthemp-backend/internal/auth"
	"everesthemp-backend/internal/domain"
	"everesthemp-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const minPasswordLength = 8

type UserService struct {
	users  repository.UserRepository
	tokens *auth.TokenIssuer
	log    *slog.Logger
}

func NewUserService(users repository.UserRepository, tokens *auth.TokenIssuer, log *slog.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, log: log}
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// Register creates a customer account. Admins are only made through the
// seed command or by another admin.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	name = strings.TrimSpace(name)
	email = domain.NormalizeEmail(email)
	switch {
	case name == "":
		return nil, "", domain.Errorf(domain.ErrValidation, "name is required")
	case !validEmail(email):
		return nil, "", domain.Errorf(domain.ErrValidation, "a valid email is required")
	case len(password) < minPasswordLength:
		return nil, "", domain.Errorf(domain.ErrValidation, "password must be at least %d characters", minPasswordLength)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", err
	}
	u := &domain.User{Name: name, Email: email, Password: hashed, Role: domain.RoleCustomer}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, "", domain.Errorf(domain.ErrConflict, "email already registered")
		}
		return nil, "", err
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, "", err
	}
	s.log.Info("user registered", "user", u.ID.Hex())
	return u, token, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, "", domain.Errorf(domain.ErrUnauthenticated, "invalid email or password")
	}
	if err != nil {
		return nil, "", err
	}
	if err := auth.CheckPassword(u.Password, password); err != nil {
		return nil, "", domain.Errorf(domain.ErrUnauthenticated, "invalid email or password")
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *UserService) GetUser(ctx context.Context, caller auth.Identity, id primitive.ObjectID) (*domain.User, error) {
	if !caller.CanAccess(id) {
		return nil, domain.Errorf(domain.ErrForbidden, "cannot view another user's profile")
	}
	return s.users.FindByID(ctx, id)
}

func (s *UserService) UpdateUser(ctx context.Context, caller auth.Identity, id primitive.ObjectID, up domain.UserUpdate) (*domain.User, error) {
	if !caller.CanAccess(id) {
		return nil, domain.Errorf(domain.ErrForbidden, "cannot edit another user's profile")
	}
	if up.Role != nil {
		if !caller.IsAdmin() {
			return nil, domain.Errorf(domain.ErrForbidden, "only admins can change roles")
		}
		if !up.Role.Valid() {
			return nil, domain.Errorf(domain.ErrValidation, "unknown role %q", *up.Role)
		}
	}
	if up.Name != nil && strings.TrimSpace(*up.Name) == "" {
		return nil, domain.Errorf(domain.ErrValidation, "name must not be empty")
	}
	if up.Email != nil && !validEmail(domain.NormalizeEmail(*up.Email)) {
		return nil, domain.Errorf(domain.ErrValidation, "a valid email is required")
	}

	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	up.Apply(u)
	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Errorf(domain.ErrConflict, "email already registered")
		}
		return nil, err
	}
	return u, nil
}

// ListUsers lists every user, or only those with role when it is set.
func (s *UserService) ListUsers(ctx context.Context, role domain.Role) ([]domain.User, error) {
	if role != "" && !role.Valid() {
		return nil, domain.Errorf(domain.ErrValidation, "unknown role %q", role)
	}
	return s.users.List(ctx, role)
}
