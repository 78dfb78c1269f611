package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/mood-journal/internal/apperror"
	"github.com/sakif/mood-journal/internal/auth"
	"github.com/sakif/mood-journal/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository. Set the *Err
// fields to simulate database failures.
type fakeUserRepo struct {
	users   map[string]*model.User
	byEmail map[string]*model.User
	byGHID  map[int64]*model.User
	nextID  int

	createErr  error
	upsertErr  error
	getByIDErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:   make(map[string]*model.User),
		byEmail: make(map[string]*model.User),
		byGHID:  make(map[int64]*model.User),
	}
}

func (f *fakeUserRepo) store(user *model.User) {
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
	if user.Email != "" {
		f.byEmail[user.Email] = &copied
	}
	if user.GitHubID != nil {
		f.byGHID[*user.GitHubID] = &copied
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, taken := f.byEmail[user.Email]; taken {
		return apperror.Conflict("user", user.Email)
	}
	f.store(user)
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) UpsertGitHub(_ context.Context, user *model.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if existing, ok := f.byGHID[*user.GitHubID]; ok {
		existing.Login = user.Login
		existing.Email = user.Email
		existing.AvatarURL = user.AvatarURL
		*user = *existing
		return nil
	}
	f.store(user)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	require.NoError(t, err)

	return NewAuthService(repo, ts, auth.NewPasswordServiceForTest(4), discardLogger())
}

// =========================================================================
// Register TESTS
// =========================================================================

func TestRegister_Success(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	user, err := svc.Register(context.Background(), "  maya ", " Maya@Example.com ", "secret-pw")
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "maya", user.Username)
	assert.Equal(t, "maya@example.com", user.Email)
	assert.NotEqual(t, "secret-pw", user.PasswordHash)
	assert.True(t, strings.HasPrefix(user.PasswordHash, "$2a$"))
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
		field    string
	}{
		{"missing username", "", "a@b.co", "secret-pw", "username"},
		{"long username", strings.Repeat("x", MaxUsernameLength+1), "a@b.co", "secret-pw", "username"},
		{"missing email", "maya", "", "secret-pw", "email"},
		{"bad email", "maya", "not-an-email", "secret-pw", "email"},
		{"display-name email", "maya", "Maya <a@b.co>", "secret-pw", "email"},
		{"short password", "maya", "a@b.co", "123", "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepo()
			svc := newTestAuthService(t, repo)

			_, err := svc.Register(context.Background(), tt.username, tt.email, tt.password)

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, tt.field, appErr.Field)
			assert.Empty(t, repo.users, "nothing stored on validation failure")
		})
	}
}

func TestRegister_DuplicateEmailIsConflict(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, "maya", "maya@example.com", "secret-pw")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "other", "MAYA@example.com", "secret-pw")
	assert.True(t, apperror.Is(err, apperror.ErrConflict), "got %v", err)
}

func TestRegister_StorageFailurePropagates(t *testing.T) {
	repo := newFakeUserRepo()
	repo.createErr = apperror.StorageFailure("create user", errors.New("disk full"))
	svc := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), "maya", "maya@example.com", "secret-pw")
	assert.True(t, apperror.Is(err, apperror.ErrStorage))
}

// =========================================================================
// Login TESTS
// =========================================================================

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "maya", "maya@example.com", "secret-pw")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		result, err := svc.Login(ctx, "Maya@Example.com", "secret-pw")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, result.User.ID)

		subject, err := svc.ValidateToken(result.Token)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, subject)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		_, wrongPw := svc.Login(ctx, "maya@example.com", "wrong-pw")
		_, unknown := svc.Login(ctx, "nobody@example.com", "secret-pw")

		assert.True(t, apperror.Is(wrongPw, apperror.ErrUnauthorized))
		assert.True(t, apperror.Is(unknown, apperror.ErrUnauthorized))
		assert.Equal(t, wrongPw.Error(), unknown.Error())
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Login(ctx, "", "")
		assert.True(t, apperror.Is(err, apperror.ErrValidation))
	})
}

func TestLogin_GitHubOnlyAccountCannotUsePassword(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 9, Login: "octo", Email: "octo@example.com"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "octo@example.com", "anything")
	assert.True(t, apperror.Is(err, apperror.ErrUnauthorized))
}

// =========================================================================
// LoginOrRegisterGitHub TESTS
// =========================================================================

func TestLoginOrRegisterGitHub_NewUser(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	result, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID:        42,
		Login:     "octocat",
		Email:     "octocat@github.com",
		AvatarURL: "https://avatars.githubusercontent.com/u/42",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.User.ID)
	assert.Equal(t, "octocat", result.User.Login)
	require.NotNil(t, result.User.GitHubID)
	assert.Equal(t, int64(42), *result.User.GitHubID)
}

func TestLoginOrRegisterGitHub_ExistingUserGetsUpdatedProfile(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	first, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 99, Login: "old-login"})
	require.NoError(t, err)

	second, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 99, Login: "new-login"})
	require.NoError(t, err)

	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, "new-login", second.User.Login)
}

func TestLoginOrRegisterGitHub_Errors(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	_, err := svc.LoginOrRegisterGitHub(context.Background(), nil)
	assert.Error(t, err)

	repo.upsertErr = apperror.StorageFailure("upsert GitHub user", errors.New("database is on fire"))
	_, err = svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 1, Login: "user"})
	assert.True(t, apperror.Is(err, apperror.ErrStorage))
}

// =========================================================================
// GetUserByID / ValidateToken TESTS
// =========================================================================

func TestGetUserByID(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	u, err := svc.Register(ctx, "findme", "findme@example.com", "secret-pw")
	require.NoError(t, err)

	got, err := svc.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "findme", got.Username)

	_, err = svc.GetUserByID(ctx, "")
	assert.True(t, apperror.Is(err, apperror.ErrUnauthorized))

	_, err = svc.GetUserByID(ctx, "non-existent-id")
	assert.True(t, apperror.Is(err, apperror.ErrNotFound))
}

func TestValidateToken_InvalidToken(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	_, err := svc.ValidateToken("this.is.garbage")
	assert.Error(t, err)
}
