package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"quizadmin/database"
	"quizadmin/models"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const (
	usersUnitID    = "users"
	usersUnitTitle = "User management"
)

// UserService is the account administration behind the users screen.
// Every operation requires the canUsers permission.
type UserService struct {
	tree     database.Tree
	activity *ActivityService
	validate *validator.Validate
	clock    Clock
}

func NewUserService(tree database.Tree, activity *ActivityService, clock Clock) *UserService {
	return &UserService{
		tree:     tree,
		activity: activity,
		validate: validator.New(),
		clock:    clock,
	}
}

type UserFilter struct {
	Query  string `form:"q"`
	Role   string `form:"role"`
	Status string `form:"status"`
}

type CreateUserRequest struct {
	Name            string      `json:"name" validate:"required"`
	Email           string      `json:"email" validate:"required,email"`
	Password        string      `json:"password" validate:"required,min=6"`
	ConfirmPassword string      `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            models.Role `json:"role"`
	IsActive        *bool       `json:"isActive"`
}

type UpdateUserRequest struct {
	Name     string      `json:"name" validate:"required"`
	Email    string      `json:"email" validate:"required,email"`
	Role     models.Role `json:"role" validate:"required"`
	IsActive bool        `json:"isActive"`
}

type UserStats struct {
	Total       int `json:"total"`
	Active      int `json:"active"`
	Inactive    int `json:"inactive"`
	SuperAdmins int `json:"superAdmins"`
	Admins      int `json:"admins"`
	Editors     int `json:"editors"`
	Students    int `json:"students"`
}

// userSummary is what the activity log keeps about an account.
type userSummary struct {
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	IsActive  bool        `json:"isActive"`
	CreatedAt int64       `json:"createdAt,omitempty"`
	LastLogin int64       `json:"lastLogin,omitempty"`
}

func summarize(u models.User) userSummary {
	return userSummary{Name: u.Name, Email: u.Email, Role: u.Role, IsActive: u.IsActive, CreatedAt: u.CreatedAt, LastLogin: u.LastLogin}
}

func userLabel(u models.User) string {
	return fmt.Sprintf("User: %s (%s)", u.Name, u.Email)
}

func (s *UserService) logUser(ctx context.Context, typ models.ActivityType, u models.User, oldData, newData any) {
	s.activity.LogActivity(ctx, typ, models.ActivityPayload{
		UnitID:       usersUnitID,
		UnitTitle:    usersUnitTitle,
		QuestionText: userLabel(u),
		OldData:      oldData,
		NewData:      newData,
	})
}

// List returns the accounts matching filter, newest first.
func (s *UserService) List(ctx context.Context, filter UserFilter) ([]models.User, error) {
	if _, err := requirePermission(ctx, models.PermUsers); err != nil {
		return nil, err
	}
	users, err := listUsers(ctx, s.tree)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt > users[j].CreatedAt })

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if query != "" && !strings.Contains(strings.ToLower(u.Name), query) && !strings.Contains(strings.ToLower(u.Email), query) {
			continue
		}
		if filter.Role != "" && filter.Role != "all" && string(u.Role) != filter.Role {
			continue
		}
		switch filter.Status {
		case "active":
			if !u.IsActive {
				continue
			}
		case "inactive":
			if u.IsActive {
				continue
			}
		}
		out = append(out, u.Public())
	}
	return out, nil
}

// Stats counts accounts by status and role.
func (s *UserService) Stats(ctx context.Context) (*UserStats, error) {
	if _, err := requirePermission(ctx, models.PermUsers); err != nil {
		return nil, err
	}
	users, err := listUsers(ctx, s.tree)
	if err != nil {
		return nil, err
	}
	stats := &UserStats{Total: len(users)}
	for _, u := range users {
		if u.IsActive {
			stats.Active++
		}
		switch u.Role {
		case models.RoleSuperAdmin:
			stats.SuperAdmins++
		case models.RoleAdmin:
			stats.Admins++
		case models.RoleEditor:
			stats.Editors++
		case models.RoleStudent:
			stats.Students++
		}
	}
	stats.Inactive = stats.Total - stats.Active
	return stats, nil
}

func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	if _, err := requirePermission(ctx, models.PermUsers); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = models.RoleStudent
	}
	if !req.Role.Valid() {
		return nil, ErrInvalidRole
	}

	users, err := listUsers(ctx, s.tree)
	if err != nil {
		return nil, err
	}
	if findByEmail(users, req.Email) != nil {
		return nil, ErrEmailInUse
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := s.clock.now().UnixMilli()
	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		IsActive:     req.IsActive == nil || *req.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
		PasswordHash: string(hash),
	}
	id, err := s.tree.Push(ctx, database.UsersPath, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.ID = id

	s.logUser(ctx, models.ActivityAdd, user, nil, summarize(user))
	public := user.Public()
	return &public, nil
}

func (s *UserService) Update(ctx context.Context, id string, req *UpdateUserRequest) (*models.User, error) {
	if _, err := requirePermission(ctx, models.PermUsers); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if !req.Role.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := getUser(ctx, s.tree, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(user.Email, req.Email) {
		users, err := listUsers(ctx, s.tree)
		if err != nil {
			return nil, err
		}
		if other := findByEmail(users, req.Email); other != nil && other.ID != id {
			return nil, ErrEmailInUse
		}
	}

	old := summarize(*user)
	user.Name = req.Name
	user.Email = req.Email
	user.Role = req.Role
	user.IsActive = req.IsActive
	user.UpdatedAt = s.clock.now().UnixMilli()
	if err := saveUser(ctx, s.tree, *user); err != nil {
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}

	s.logUser(ctx, models.ActivityEdit, *user, old, summarize(*user))
	public := user.Public()
	return &public, nil
}

// ToggleStatus flips an account between active and disabled.
func (s *UserService) ToggleStatus(ctx context.Context, id string) (*models.User, error) {
	if _, err := requirePermission(ctx, models.PermUsers); err != nil {
		return nil, err
	}
	user, err := getUser(ctx, s.tree, id)
	if err != nil {
		return nil, err
	}
	user.IsActive = !user.IsActive
	user.UpdatedAt = s.clock.now().UnixMilli()
	if err := saveUser(ctx, s.tree, *user); err != nil {
		return nil, fmt.Errorf("toggle user %s: %w", id, err)
	}
	log.Printf("User %s active=%t", user.Email, user.IsActive)
	public := user.Public()
	return &public, nil
}

// Delete removes an account. Actors cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, id string) error {
	actor, err := requirePermission(ctx, models.PermUsers)
	if err != nil {
		return err
	}
	if actor.ID == id {
		return ErrCannotDeleteSelf
	}
	user, err := getUser(ctx, s.tree, id)
	if err != nil {
		return err
	}
	if err := s.tree.Remove(ctx, database.Join(database.UsersPath, id)); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	s.logUser(ctx, models.ActivityDelete, *user, summarize(*user), nil)
	return nil
}
