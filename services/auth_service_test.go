package services

import (
	"context"
	"testing"
	"time"

	"quizadmin/models"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signup(t *testing.T, e *testEnv, name, email string) *AuthResponse {
	t.Helper()
	resp, err := e.auth.Signup(context.Background(), &SignupRequest{
		Name:            name,
		Email:           email,
		Password:        "secret123",
		ConfirmPassword: "secret123",
	})
	require.NoError(t, err)
	return resp
}

func TestFirstSignupBecomesSuperAdmin(t *testing.T) {
	e := newTestEnv(t, models.Collections{})

	first := signup(t, e, "Ada", "ada@example.com")
	second := signup(t, e, "Bob", "bob@example.com")

	assert.Equal(t, models.RoleSuperAdmin, first.User.Role)
	assert.Equal(t, models.RoleStudent, second.User.Role)
	assert.NotEmpty(t, first.Token)
	assert.Empty(t, first.User.PasswordHash)
	assert.True(t, first.User.IsActive)
}

func TestSignupRejectsDuplicatesAndBadInput(t *testing.T) {
	e := newTestEnv(t, models.Collections{})
	signup(t, e, "Ada", "ada@example.com")

	_, err := e.auth.Signup(context.Background(), &SignupRequest{
		Name: "Other", Email: "ADA@example.com", Password: "secret123", ConfirmPassword: "secret123",
	})
	assert.ErrorIs(t, err, ErrEmailInUse)

	_, err = e.auth.Signup(context.Background(), &SignupRequest{
		Name: "Eve", Email: "eve@example.com", Password: "secret123", ConfirmPassword: "different",
	})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	_, err = e.auth.Signup(context.Background(), &SignupRequest{
		Name: "Eve", Email: "not-an-email", Password: "abc", ConfirmPassword: "abc",
	})
	assert.ErrorAs(t, err, &verrs)
}

func TestLoginAndAuthenticate(t *testing.T) {
	e := newTestEnv(t, models.Collections{})
	created := signup(t, e, "Ada", "ada@example.com")
	e.clock.Advance(time.Hour)

	resp, err := e.auth.Login(context.Background(), &LoginRequest{Email: " ada@example.com ", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, resp.User.ID)
	assert.Equal(t, e.clock.Now().UnixMilli(), resp.User.LastLogin)

	user, err := e.auth.Authenticate(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, e.clock.Now().UnixMilli(), user.LastLogin)
	assert.NotEmpty(t, user.PasswordHash, "the stored record keeps its hash")

	_, err = e.auth.Login(context.Background(), &LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidLogin)
	_, err = e.auth.Login(context.Background(), &LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidLogin)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	e := newTestEnv(t, models.Collections{})
	resp := signup(t, e, "Ada", "ada@example.com")

	_, err := e.auth.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewAuthService(e.tree, "another-secret", Clock{Now: e.clock.Now})
	_, err = other.Authenticate(context.Background(), resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, e.tree.Remove(context.Background(), "users/"+resp.User.ID))
	_, err = e.auth.Authenticate(context.Background(), resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDisabledAccountCannotSignIn(t *testing.T) {
	e := newTestEnv(t, models.Collections{})
	admin := signup(t, e, "Ada", "ada@example.com")
	student := signup(t, e, "Bob", "bob@example.com")

	ctx := models.WithActor(context.Background(), admin.User.Actor())
	_, err := e.users.ToggleStatus(ctx, student.User.ID)
	require.NoError(t, err)

	_, err = e.auth.Login(context.Background(), &LoginRequest{Email: "bob@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrAccountDisabled)
	_, err = e.auth.Authenticate(context.Background(), student.Token)
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestProfile(t *testing.T) {
	e := newTestEnv(t, models.Collections{})
	resp := signup(t, e, "Ada", "ada@example.com")

	_, err := e.auth.Profile(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	profile, err := e.auth.Profile(models.WithActor(context.Background(), resp.User.Actor()))
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.Name)
	assert.Empty(t, profile.PasswordHash)
}
