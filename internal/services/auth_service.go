package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"contas/internal/auth"
	"contas/internal/core"
	"contas/internal/storage"
)

// AuthService authenticates users and provisions new ones.
type AuthService struct {
	notifier
	storage *storage.SQLiteRepository
	tokens  *auth.Issuer
	cost    int
}

func NewAuthService(storage *storage.SQLiteRepository, tokens *auth.Issuer) *AuthService {
	return &AuthService{storage: storage, tokens: tokens, cost: bcrypt.DefaultCost}
}

// Authenticate checks email and password. Unknown emails, wrong passwords and
// inactive users all yield an AuthError.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (core.User, error) {
	email = strings.TrimSpace(email)
	u, err := s.storage.Queries().GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, &core.AuthError{Err: core.ErrInvalidCredentials}
	}
	if err != nil {
		return core.User{}, fmt.Errorf("authenticate: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		slog.WarnContext(ctx, "Login failed", "user_id", u.ID)
		return core.User{}, &core.AuthError{Err: core.ErrInvalidCredentials}
	}
	if u.Status != core.StatusActive {
		return core.User{}, &core.AuthError{Err: core.ErrInactiveUser}
	}
	return u, nil
}

// Login authenticates and issues an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (core.User, auth.Token, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return core.User{}, auth.Token{}, err
	}
	tok, err := s.tokens.Issue(u)
	if err != nil {
		return core.User{}, auth.Token{}, fmt.Errorf("login: %w", err)
	}
	slog.InfoContext(ctx, "User logged in", "user_id", u.ID)
	return u, tok, nil
}

// Profile returns the user behind an authenticated identity.
func (s *AuthService) Profile(ctx context.Context, userID int64) (core.User, error) {
	u, err := s.storage.Queries().GetUser(ctx, userID)
	if err != nil {
		return core.User{}, fmt.Errorf("profile: %w", err)
	}
	return u, nil
}

// CreateUser provisions a user with its savings and expenses accounts. Only
// admins may call it.
func (s *AuthService) CreateUser(ctx context.Context, caller auth.Identity, in core.NewUser) (core.User, error) {
	if !caller.IsAdmin() {
		return core.User{}, &core.AuthError{Err: core.ErrForbidden}
	}
	if err := in.Validate(); err != nil {
		return core.User{}, err
	}
	if in.Role == "" {
		in.Role = core.RoleUser
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	var u core.User
	err = s.storage.InTx(ctx, func(q *storage.Queries) error {
		var err error
		u, err = storage.ProvisionUser(ctx, q, storage.CreateUserParams{
			Name:         strings.TrimSpace(in.Name),
			Email:        strings.ToLower(strings.TrimSpace(in.Email)),
			PasswordHash: string(hash),
			Role:         in.Role,
			Status:       core.StatusActive,
		})
		return err
	})
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", u.ID, "role", u.Role, "created_by", caller.UserID)
	s.notify(ctx, core.LedgerEvent{UserID: u.ID, Reason: core.ReasonUserCreated})
	return u, nil
}

// ListUsers returns every user. Only admins may call it.
func (s *AuthService) ListUsers(ctx context.Context, caller auth.Identity) ([]core.User, error) {
	if !caller.IsAdmin() {
		return nil, &core.AuthError{Err: core.ErrForbidden}
	}
	users, err := s.storage.Queries().ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// EnsureAdmin seeds the canonical admin and its accounts. Running it again
// leaves an existing admin untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (core.User, error) {
	u, created, err := s.storage.EnsureUser(ctx, storage.CreateUserParams{
		Name:   name,
		Email:  strings.ToLower(strings.TrimSpace(email)),
		Role:   core.RoleAdmin,
		Status: core.StatusActive,
	}, func() (string, error) {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
		return string(hash), err
	})
	if err != nil {
		return core.User{}, fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		slog.InfoContext(ctx, "Admin user seeded", "user_id", u.ID, "email", u.Email)
	}
	return u, nil
}
