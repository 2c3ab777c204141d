package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"quizadmin/database"
	"quizadmin/models"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenExpiry = 24 * time.Hour

type AuthService struct {
	tree      database.Tree
	jwtSecret []byte
	validate  *validator.Validate
	clock     Clock
}

func NewAuthService(tree database.Tree, jwtSecret string, clock Clock) *AuthService {
	return &AuthService{
		tree:      tree,
		jwtSecret: []byte(jwtSecret),
		validate:  validator.New(),
		clock:     clock,
	}
}

type SignupRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type Claims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Signup registers an account. The very first account becomes the super
// administrator; every later one starts as a student.
func (s *AuthService) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	users, err := listUsers(ctx, s.tree)
	if err != nil {
		return nil, err
	}
	if findByEmail(users, req.Email) != nil {
		return nil, ErrEmailInUse
	}

	role := models.RoleStudent
	if len(users) == 0 {
		role = models.RoleSuperAdmin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.now().UnixMilli()
	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		LastLogin:    now,
		PasswordHash: string(hash),
	}
	id, err := s.tree.Push(ctx, database.UsersPath, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.ID = id
	log.Printf("User %s registered as %s", user.Email, user.Role)

	return s.respond(user)
}

// Login checks the credentials of an active account and records the login time.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	users, err := listUsers(ctx, s.tree)
	if err != nil {
		return nil, err
	}
	user := findByEmail(users, req.Email)
	if user == nil {
		return nil, ErrInvalidLogin
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidLogin
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	user.LastLogin = s.clock.now().UnixMilli()
	if err := saveUser(ctx, s.tree, *user); err != nil {
		log.Printf("warning: could not record login of %s: %v", user.ID, err)
	}

	return s.respond(*user)
}

func (s *AuthService) respond(user models.User) (*AuthResponse, error) {
	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: user.Public()}, nil
}

func (s *AuthService) generateToken(user models.User) (string, error) {
	now := s.clock.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenExpiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// Authenticate resolves a bearer token to the current state of its account.
// Disabled or deleted accounts no longer authenticate.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.clock.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	user, err := getUser(ctx, s.tree, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

// Profile returns the public record of the actor in ctx.
func (s *AuthService) Profile(ctx context.Context) (*models.User, error) {
	actor := models.ActorFrom(ctx)
	if actor == nil {
		return nil, ErrNotAuthenticated
	}
	user, err := getUser(ctx, s.tree, actor.ID)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

func listUsers(ctx context.Context, tree database.Tree) ([]models.User, error) {
	nodes, err := tree.List(ctx, database.UsersPath)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]models.User, 0, len(nodes))
	for _, n := range nodes {
		if database.Parent(n.Path) != database.UsersPath {
			continue
		}
		var u models.User
		if err := json.Unmarshal(n.Value, &u); err != nil {
			log.Printf("warning: skipping unreadable user %s: %v", n.Path, err)
			continue
		}
		u.ID = n.Key()
		users = append(users, u)
	}
	return users, nil
}

func saveUser(ctx context.Context, tree database.Tree, user models.User) error {
	id := user.ID
	user.ID = ""
	return tree.Set(ctx, database.Join(database.UsersPath, id), user)
}

func getUser(ctx context.Context, tree database.Tree, id string) (*models.User, error) {
	if id == "" || strings.Contains(id, "/") {
		return nil, ErrUserNotFound
	}
	var u models.User
	found, err := tree.Get(ctx, database.Join(database.UsersPath, id), &u)
	if err != nil {
		return nil, fmt.Errorf("read user %s: %w", id, err)
	}
	if !found {
		return nil, ErrUserNotFound
	}
	u.ID = id
	return &u, nil
}

func findByEmail(users []models.User, email string) *models.User {
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i]
		}
	}
	return nil
}
