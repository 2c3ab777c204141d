package services

import (
	"context"
	"testing"
	"time"

	"quizadmin/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func createUser(t *testing.T, e *testEnv, name, email string, role models.Role) *models.User {
	t.Helper()
	u, err := e.users.Create(superAdmin(), &CreateUserRequest{
		Name:            name,
		Email:           email,
		Password:        "secret123",
		ConfirmPassword: "secret123",
		Role:            role,
	})
	require.NoError(t, err)
	e.clock.Advance(time.Second)
	return u
}

func TestCreateUser(t *testing.T) {
	e := newTestEnv(t, models.Collections{})

	u := createUser(t, e, "Ed", "ed@example.com", models.RoleEditor)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, models.RoleEditor, u.Role)
	assert.True(t, u.IsActive)
	assert.Empty(t, u.PasswordHash)

	disabled, err := e.users.Create(superAdmin(), &CreateUserRequest{
		Name: "Sam", Email: "sam@example.com", Password: "secret123", ConfirmPassword: "secret123", IsActive: boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, disabled.Role)
	assert.False(t, disabled.IsActive)

	_, err = e.users.Create(superAdmin(), &CreateUserRequest{
		Name: "Dup", Email: "ED@example.com", Password: "secret123", ConfirmPassword: "secret123",
	})
	assert.ErrorIs(t, err, ErrEmailInUse)

	_, err = e.users.Create(superAdmin(), &CreateUserRequest{
		Name: "Odd", Email: "odd@example.com", Password: "secret123", ConfirmPassword: "secret123", Role: "owner",
	})
	assert.ErrorIs(t, err, ErrInvalidRole)

	logs := activityLog(t, e, models.ActivityFilter{UnitID: "users"})
	require.Len(t, logs, 2)
	assert.Equal(t, "User: Ed (ed@example.com)", logs[1].QuestionText)
	assert.Equal(t, "User management", logs[1].UnitTitle)
	assert.NotContains(t, logs[1].NewData, "passwordHash")
}

func TestListUsersFilters(t *testing.T) {
	e := newTestEnv(t, models.Collections{})
	createUser(t, e, "Alice", "alice@example.com", models.RoleAdmin)
	createUser(t, e, "Bob", "bob@school.org", models.RoleStudent)
	carol := createUser(t, e, "Carol", "carol@example.com", models.RoleStudent)
	_, err := e.users.ToggleStatus(superAdmin(), carol.ID)
	require.NoError(t, err)

	all, err := e.users.List(superAdmin(), UserFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Carol", all[0].Name, "newest first")

	byQuery, err := e.users.List(superAdmin(), UserFilter{Query: "EXAMPLE"})
	require.NoError(t, err)
	assert.Len(t, byQuery, 2)

	students, err := e.users.List(superAdmin(), UserFilter{Role: "student", Status: "active"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Bob", students[0].Name)

	inactive, err := e.users.List(superAdmin(), UserFilter{Role: "all", Status: "inactive"})
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, "Carol", inactive[0].Name)
}

func TestUserStats(t *testing.T) {
	e := newTestEnv(t, models.Collections{})
	createUser(t, e, "Alice", "alice@example.com", models.RoleAdmin)
	createUser(t, e, "Ed", "ed@example.com", models.RoleEditor)
	s := createUser(t, e, "Stu", "stu@example.com", models.RoleStudent)
	_, err := e.users.ToggleStatus(superAdmin(), s.ID)
	require.NoError(t, err)

	stats, err := e.users.Stats(superAdmin())
	require.NoError(t, err)
	assert.Equal(t, &UserStats{Total: 3, Active: 2, Inactive: 1, Admins: 1, Editors: 1, Students: 1}, stats)
}

func TestUpdateUser(t *testing.T) {
	e := newTestEnv(t, models.Collections{})
	alice := createUser(t, e, "Alice", "alice@example.com", models.RoleStudent)
	createUser(t, e, "Bob", "bob@example.com", models.RoleStudent)

	updated, err := e.users.Update(superAdmin(), alice.ID, &UpdateUserRequest{
		Name: "Alice B", Email: "alice.b@example.com", Role: models.RoleEditor, IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice B", updated.Name)
	assert.Equal(t, models.RoleEditor, updated.Role)
	assert.Equal(t, alice.CreatedAt, updated.CreatedAt)

	_, err = e.users.Update(superAdmin(), alice.ID, &UpdateUserRequest{
		Name: "Alice", Email: "bob@example.com", Role: models.RoleEditor, IsActive: true,
	})
	assert.ErrorIs(t, err, ErrEmailInUse)

	_, err = e.users.Update(superAdmin(), "missing", &UpdateUserRequest{
		Name: "X", Email: "x@example.com", Role: models.RoleStudent,
	})
	assert.ErrorIs(t, err, ErrUserNotFound)

	resp, err := e.auth.Login(context.Background(), &LoginRequest{Email: "alice.b@example.com", Password: "secret123"})
	require.NoError(t, err, "the password survives an update")
	assert.Equal(t, models.RoleEditor, resp.User.Role)
}

func TestDeleteUser(t *testing.T) {
	e := newTestEnv(t, models.Collections{})
	bob := createUser(t, e, "Bob", "bob@example.com", models.RoleStudent)

	require.NoError(t, e.users.Delete(superAdmin(), bob.ID))
	assert.ErrorIs(t, e.users.Delete(superAdmin(), bob.ID), ErrUserNotFound)

	logs := activityLog(t, e, models.ActivityFilter{Type: "DELETE"})
	require.Len(t, logs, 1)
	assert.Equal(t, "User: Bob (bob@example.com)", logs[0].QuestionText)

	assert.ErrorIs(t, e.users.Delete(superAdmin(), "u-super_admin"), ErrCannotDeleteSelf)
}

func TestUserAdministrationRequiresPermission(t *testing.T) {
	e := newTestEnv(t, models.Collections{})
	ctx := actorCtx(models.RoleAdmin)

	_, err := e.users.List(ctx, UserFilter{})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = e.users.Stats(ctx)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.ErrorIs(t, e.users.Delete(ctx, "x"), ErrPermissionDenied)
}
