package services

import (
	"testing"

	"github.com/aonuma/task-tracker-api/internal/models"
	"github.com/aonuma/task-tracker-api/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type authTestEnv struct {
	db          *gorm.DB
	authService *AuthService
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.Task{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return authTestEnv{
		db:          db,
		authService: NewAuthService(repository.NewUserRepository(db)),
	}
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Name:     "Alice Example",
		Email:    "alice@x.com",
		Username: "alice",
		Password: "supersecret",
	}
}

func TestAuthService_Register(t *testing.T) {
	env := setupAuthTestEnv(t)

	user, err := env.authService.Register(validRegisterInput())
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "alice@x.com", user.Email)
	require.Equal(t, models.UserStatusActive, user.Status)
	require.NotEmpty(t, user.PasswordHash)
	require.NotEqual(t, "supersecret", user.PasswordHash, "password must never be stored in plaintext")
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, err := env.authService.Register(validRegisterInput())
	require.NoError(t, err)

	dup := validRegisterInput()
	dup.Email = "other@x.com"
	_, err = env.authService.Register(dup)
	require.ErrorIs(t, err, ErrUserExists)

	var count int64
	env.db.Model(&models.User{}).Count(&count)
	require.EqualValues(t, 1, count, "conflicting signup must not create a record")
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, err := env.authService.Register(validRegisterInput())
	require.NoError(t, err)

	dup := validRegisterInput()
	dup.Username = "alice2"
	_, err = env.authService.Register(dup)
	require.ErrorIs(t, err, ErrUserExists)
}

func TestAuthService_Register_Validation(t *testing.T) {
	env := setupAuthTestEnv(t)

	missing := validRegisterInput()
	missing.Name = ""
	_, err := env.authService.Register(missing)
	require.ErrorIs(t, err, ErrMissingSignupField)

	short := validRegisterInput()
	short.Password = "short"
	_, err = env.authService.Register(short)
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestAuthService_Authenticate(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, err := env.authService.Register(validRegisterInput())
	require.NoError(t, err)

	// By username
	user, err := env.authService.Authenticate("alice", "supersecret")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)

	// By email
	user, err = env.authService.Authenticate("alice@x.com", "supersecret")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
}

// A missing user and a wrong password must be indistinguishable.
func TestAuthService_Authenticate_Failures(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, err := env.authService.Register(validRegisterInput())
	require.NoError(t, err)

	_, wrongPassword := env.authService.Authenticate("alice", "wrong-password")
	_, noSuchUser := env.authService.Authenticate("nobody", "supersecret")

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, noSuchUser, ErrInvalidCredentials)
	require.Equal(t, wrongPassword.Error(), noSuchUser.Error())
}

func TestAuthService_FindOrCreateByEmail_Existing(t *testing.T) {
	env := setupAuthTestEnv(t)

	registered, err := env.authService.Register(validRegisterInput())
	require.NoError(t, err)

	found, err := env.authService.FindOrCreateByEmail("alice@x.com", "Ignored Name")
	require.NoError(t, err)
	require.Equal(t, registered.ID, found.ID)
	require.Equal(t, "alice", found.Username)
}

func TestAuthService_FindOrCreateByEmail_UsernameDisambiguation(t *testing.T) {
	env := setupAuthTestEnv(t)

	// Occupy "bob" and "bob1"; the federated account must get "bob11".
	for _, username := range []string{"bob", "bob1"} {
		input := validRegisterInput()
		input.Username = username
		input.Email = username + "@elsewhere.com"
		_, err := env.authService.Register(input)
		require.NoError(t, err)
	}

	user, err := env.authService.FindOrCreateByEmail("bob@x.com", "Bob")
	require.NoError(t, err)
	require.Equal(t, "bob11", user.Username)
	require.Equal(t, "bob@x.com", user.Email)
	require.True(t, user.IsFederatedOnly())
}

// Accounts created through the federation path never pass password auth.
func TestAuthService_FederatedAccountHasNoPasswordLogin(t *testing.T) {
	env := setupAuthTestEnv(t)

	user, err := env.authService.FindOrCreateByEmail("carol@x.com", "Carol")
	require.NoError(t, err)
	require.True(t, user.IsFederatedOnly())

	_, err = env.authService.Authenticate("carol", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.authService.Authenticate("carol@x.com", "anything")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
