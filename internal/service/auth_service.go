package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Claims extends JWT standard claims with the caller's identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID  `json:"user_id"`
	SchoolID uuid.UUID  `json:"school_id"`
	Role     model.Role `json:"role"`
}

// Actor converts the claims into the service-level caller.
func (c *Claims) Actor() Actor {
	return Actor{UserID: c.UserID, SchoolID: c.SchoolID, Role: c.Role}
}

// CredentialStore is the user lookup needed for login.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, schoolID, id uuid.UUID) (*model.User, error)
	TouchSignIn(ctx context.Context, id uuid.UUID, at time.Time) error
}

// AuthService handles authentication, JWT and token revocation.
type AuthService struct {
	cfg   *config.Config
	rdb   *redis.Client
	users CredentialStore
	log   zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, users CredentialStore, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:   cfg,
		rdb:   rdb,
		users: users,
		log:   log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := s.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}
	if user.Status == model.UserStatusInactive {
		return nil, ErrAccountInactive
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.users.TouchSignIn(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("Failed to record sign-in")
	} else {
		user.LastSignInAt = &now
	}

	return &model.LoginResponse{Token: token, User: *user}, nil
}

// Me returns the caller's current profile.
func (s *AuthService) Me(ctx context.Context, claims *Claims) (*model.User, error) {
	return s.users.GetByID(ctx, claims.SchoolID, claims.UserID)
}

// GenerateToken creates a signed JWT for a user.
func (s *AuthService) GenerateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		UserID:   user.ID,
		SchoolID: user.SchoolID,
		Role:     user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if !claims.Role.Valid() || claims.UserID == uuid.Nil {
		return nil, errors.New("incomplete token claims")
	}
	return claims, nil
}

// Revoke puts the token's JTI on the deny list until the token would expire.
func (s *AuthService) Revoke(ctx context.Context, claims *Claims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			ttl = remaining
		}
	}
	return s.rdb.Set(ctx, config.CacheKey.RevokedTokenKey(claims.ID), 1, ttl).Err()
}

// SuspendUser invalidates every token already issued to the user. The marker
// outlives the longest token lifetime.
func (s *AuthService) SuspendUser(ctx context.Context, userID uuid.UUID) error {
	return s.rdb.Set(ctx, config.CacheKey.SuspendedUserKey(userID), 1, s.cfg.JWTExpiry).Err()
}

// RestoreUser lifts a suspension set by SuspendUser.
func (s *AuthService) RestoreUser(ctx context.Context, userID uuid.UUID) error {
	return s.rdb.Del(ctx, config.CacheKey.SuspendedUserKey(userID)).Err()
}

// IsSuspended reports whether the user was deactivated or deleted after
// their tokens were issued.
func (s *AuthService) IsSuspended(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := s.rdb.Exists(ctx, config.CacheKey.SuspendedUserKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check suspension: %w", err)
	}
	return n > 0, nil
}

// IsRevoked reports whether the JTI was logged out.
func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, config.CacheKey.RevokedTokenKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}
