package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/internal/infrastructure/persistence"
	"github.com/fieldgrid/backend/pkg/auth"
	"github.com/fieldgrid/backend/pkg/errors"
	"github.com/fieldgrid/backend/pkg/utils"
)

// AuthService handles authentication, session management, and user accounts
type AuthService struct {
	users    *persistence.UserRepository
	sessions *persistence.SessionRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(users *persistence.UserRepository, sessions *persistence.SessionRepository) *AuthService {
	return &AuthService{users: users, sessions: sessions}
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	Token     string
	User      auth.UserSession
	ExpiresAt time.Time
}

// Login authenticates a user and creates a session
func (s *AuthService) Login(ctx context.Context, email, password, ip, userAgent string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user == nil || !user.IsActive {
		log.Printf("⚠️ Login failed for %s: user not found", email)
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}

	if !auth.VerifyPassword(password, user.Password) {
		log.Printf("⚠️ Login failed for %s: invalid password", email)
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}

	userSession := auth.UserSession{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	}

	token, err := auth.GenerateToken(userSession)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	claims, err := auth.DecodeToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	expiresAt := claims.ExpiresAt.Time

	session := &models.Session{
		ID:           claims.RegisteredClaims.ID,
		UserID:       user.ID,
		Token:        token,
		ExpiresAt:    expiresAt,
		IPAddress:    ip,
		UserAgent:    userAgent,
		IsRevoked:    false,
		LastActivity: time.Now(),
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	return &LoginResult{Token: token, User: userSession, ExpiresAt: expiresAt}, nil
}

// ValidateSession verifies a JWT and its backing session record
func (s *AuthService) ValidateSession(ctx context.Context, tokenString string) (*auth.Claims, error) {
	claims, err := auth.DecodeToken(tokenString)
	if err != nil {
		return nil, errors.NewUnauthorizedError("Invalid or expired token")
	}

	session, err := s.sessions.GetByID(ctx, claims.RegisteredClaims.ID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if session == nil {
		return nil, errors.NewUnauthorizedError("Session not found")
	}
	if session.IsRevoked {
		return nil, errors.NewUnauthorizedError("Session has been revoked")
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, errors.NewUnauthorizedError("Session has expired")
	}

	return claims, nil
}

// TouchSession updates last activity (fire and forget)
func (s *AuthService) TouchSession(sessionID string) {
	go func() {
		if err := s.sessions.Touch(context.Background(), sessionID); err != nil {
			log.Printf("⚠️ Failed to touch session %s: %v", sessionID, err)
		}
	}()
}

// Logout revokes the session backing a token
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := auth.DecodeToken(tokenString)
	if err != nil {
		// Token already unusable, nothing to revoke
		return nil
	}
	return s.sessions.Revoke(ctx, claims.RegisteredClaims.ID)
}

// CreateUserRequest carries the fields for account creation
type CreateUserRequest struct {
	Name     string
	Email    string
	Password string
	IsAdmin  bool
}

// CreateUser registers a new account
func (s *AuthService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if !auth.IsValidEmail(req.Email) {
		return nil, errors.NewValidationError("email", "invalid email address")
	}
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		return nil, errors.NewValidationError("password", err.Error())
	}

	exists, err := s.users.CheckEmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if exists {
		return nil, errors.NewConflictError("User", "email", req.Email)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:       utils.GenerateID(),
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		IsAdmin:  req.IsAdmin,
		IsActive: true,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUsers retrieves all active users
func (s *AuthService) GetUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.List(ctx)
}

// GetUser retrieves one user, failing with NotFound when absent
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NewNotFoundError("User", id)
	}
	return user, nil
}
