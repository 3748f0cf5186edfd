package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"attendance-tracker/internal/access"
	"attendance-tracker/internal/domain"
	"attendance-tracker/internal/repository"
)

const (
	minUsernameLength = 2
	minPasswordLength = 8
	minEmailLength    = 8
)

// ErrInvalidInviteCode indicates the registration invite code is incorrect.
var ErrInvalidInviteCode = errors.New("invalid invite code")

// RegistrationInput is the self-service sign-up form.
type RegistrationInput struct {
	Username  string
	Password  string
	Password2 string
	Email     string
	Email2    string
	Invite    string
}

// NewUserInput is the admin user creation form.
type NewUserInput struct {
	Username  string
	Password  string
	Password2 string
	Email     string
	Role      domain.Role
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in RegistrationInput) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	CreateUser(ctx context.Context, caller domain.Caller, in NewUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, caller domain.Caller, id string) error
	ListMembers(ctx context.Context, caller domain.Caller) ([]domain.User, error)
	ListNames(ctx context.Context, caller domain.Caller) ([]string, error)
	// Bootstrap creates a user without an acting caller, for operator tooling.
	Bootstrap(ctx context.Context, in NewUserInput) (*domain.User, error)
}

// UserServiceConfig carries the registration policy.
type UserServiceConfig struct {
	// RegisterSecret, when set, must be supplied as the invite code on sign-up.
	RegisterSecret string
	// EmailDomain is the only accepted email domain, e.g. "qq.com". Empty allows any.
	EmailDomain string
}

type userService struct {
	users          repository.UserRepository
	registerSecret string
	emailDomain    string
	log            *logrus.Entry
}

func NewUserService(users repository.UserRepository, cfg UserServiceConfig, log *logrus.Entry) UserService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &userService{
		users:          users,
		registerSecret: strings.TrimSpace(cfg.RegisterSecret),
		emailDomain:    strings.TrimPrefix(strings.TrimSpace(cfg.EmailDomain), "@"),
		log:            log.WithField("component", "users"),
	}
}

func (s *userService) Register(ctx context.Context, in RegistrationInput) (*domain.User, error) {
	if s.registerSecret != "" &&
		subtle.ConstantTimeCompare([]byte(strings.TrimSpace(in.Invite)), []byte(s.registerSecret)) != 1 {
		return nil, ErrInvalidInviteCode
	}
	if err := s.validateAccount(in.Username, in.Password, in.Password2, in.Email); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Email) != strings.TrimSpace(in.Email2) {
		return nil, domain.NewValidationError("email2", "email addresses do not match")
	}
	return s.create(ctx, in.Username, in.Password, in.Email, domain.RoleMember)
}

func (s *userService) CreateUser(ctx context.Context, caller domain.Caller, in NewUserInput) (*domain.User, error) {
	if err := access.Require(caller, access.ManageUsers); err != nil {
		return nil, err
	}
	user, err := s.Bootstrap(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user": user.Name, "role": user.Role, "by": caller.Name}).Info("user created")
	return user, nil
}

func (s *userService) Bootstrap(ctx context.Context, in NewUserInput) (*domain.User, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleMember
	}
	if !role.Valid() {
		return nil, domain.NewValidationError("role", fmt.Sprintf("unknown role %q", role))
	}
	if err := s.validateAccount(in.Username, in.Password, in.Password2, in.Email); err != nil {
		return nil, err
	}
	return s.create(ctx, in.Username, in.Password, in.Email, role)
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByName(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// DeleteUser removes the account. Records owned by the user stay in place.
func (s *userService) DeleteUser(ctx context.Context, caller domain.Caller, id string) error {
	if err := access.Require(caller, access.ManageUsers); err != nil {
		return err
	}
	if err := s.users.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"user_id": id, "by": caller.Name}).Info("user deleted")
	return nil
}

func (s *userService) ListMembers(ctx context.Context, caller domain.Caller) ([]domain.User, error) {
	if err := access.Require(caller, access.ManageUsers); err != nil {
		return nil, err
	}
	users, err := s.users.ListByRole(ctx, domain.RoleMember)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = *sanitizeUser(&users[i])
	}
	return users, nil
}

func (s *userService) ListNames(ctx context.Context, caller domain.Caller) ([]string, error) {
	if err := access.Require(caller, access.ViewRecords); err != nil {
		return nil, err
	}
	return s.users.ListAllNames(ctx)
}

func (s *userService) validateAccount(username, password, password2, email string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	switch {
	case strings.ContainsAny(username, " \t"):
		return domain.NewValidationError("username", "must not contain spaces")
	case len([]rune(username)) < minUsernameLength:
		return domain.NewValidationError("username", fmt.Sprintf("must be at least %d characters", minUsernameLength))
	case password != password2:
		return domain.NewValidationError("password2", "passwords do not match")
	case len(password) < minPasswordLength:
		return domain.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	case len(email) < minEmailLength:
		return domain.NewValidationError("email", "is too short")
	case s.emailDomain != "" && !strings.HasSuffix(strings.ToLower(email), "@"+strings.ToLower(s.emailDomain)):
		return domain.NewValidationError("email", fmt.Sprintf("only @%s addresses are accepted", s.emailDomain))
	}
	return nil
}

func (s *userService) create(ctx context.Context, username, password, email string, role domain.Role) (*domain.User, error) {
	username = strings.TrimSpace(username)

	n, err := s.users.CountByName(ctx, username)
	if err != nil {
		return nil, err
	}
	if n != 0 {
		return nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         username,
		PasswordHash: string(hash),
		Email:        strings.TrimSpace(email),
		Role:         role,
	}
	if _, err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
