package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aonuma/task-tracker-api/internal/constants"
	"github.com/aonuma/task-tracker-api/internal/models"
	"github.com/aonuma/task-tracker-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserExists           = errors.New("username or email already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrMissingSignupField   = errors.New("name, email, username and password are required")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles local registration, credential verification and the
// lazy account creation used by the federation path.
type AuthService struct {
	userRepo repository.UserRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
	}
}

// RegisterInput represents the required information to create a local account.
type RegisterInput struct {
	Name     string
	Email    string
	Username string
	Password string
}

// Register creates a local account. Fails with ErrUserExists when the
// username or the email is already taken.
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)

	if name == "" || email == "" || username == "" || input.Password == "" {
		return nil, ErrMissingSignupField
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	taken, err := s.userRepo.ExistsByUsernameOrEmail(username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing users: %w", err)
	}
	if taken {
		return nil, ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		Username:     username,
		PasswordHash: string(hashedPassword),
		Status:       models.UserStatusActive,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies a password against the account matching identifier,
// which may be a username or an email address. A missing account and a wrong
// password both return ErrInvalidCredentials.
func (s *AuthService) Authenticate(identifier, password string) (*models.User, error) {
	user, err := s.userRepo.FindByIdentifier(strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// Federated-only accounts carry no hash and can never pass here.
	if user.IsFederatedOnly() {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// FindOrCreateByEmail resolves a federated login to a local account. A new
// account gets a username derived from the email local part, disambiguated by
// appending "1" until unique, and an empty password hash so password login
// stays disabled for it.
func (s *AuthService) FindOrCreateByEmail(email, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	user, err := s.userRepo.FindByEmail(email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	username, err := s.uniqueUsernameFor(email)
	if err != nil {
		return nil, err
	}

	user = &models.User{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Username: username,
		Status:   models.UserStatusActive,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create federated user: %w", err)
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

func (s *AuthService) uniqueUsernameFor(email string) (string, error) {
	username := email
	if at := strings.Index(email, "@"); at > 0 {
		username = email[:at]
	}
	for {
		_, err := s.userRepo.FindByUsername(username)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return username, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		username += "1"
	}
}
