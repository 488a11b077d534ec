package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/voiceops/teamsadmin/internal/user_service/domain"
)

// AuthenticatedUser is the identity attached to a request after token
// validation.
type AuthenticatedUser struct {
	ID       uuid.UUID
	Username string
}

// AuthService issues and validates operator JWTs.
type AuthService struct {
	userRepo  domain.AdminUserRepository
	jwtSecret []byte
	expiry    time.Duration
	logger    *slog.Logger
}

func NewAuthService(userRepo domain.AdminUserRepository, jwtSecret string, expiry time.Duration, logger *slog.Logger) *AuthService {
	if expiry <= 0 {
		expiry = 8 * time.Hour
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		expiry:    expiry,
		logger:    logger,
	}
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Login checks the password and returns a signed bearer token.
func (s *AuthService) Login(ctx context.Context, username, password string) (token string, expiresAt time.Time, err error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", time.Time{}, domain.ErrInvalidCredentials
		}
		return "", time.Time{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.logger.WarnContext(ctx, "failed login attempt", "username", username)
		return "", time.Time{}, domain.ErrInvalidCredentials
	}
	if !user.Active {
		return "", time.Time{}, domain.ErrUserInactive
	}

	now := time.Now().UTC()
	expiresAt = now.Add(s.expiry)
	tokenClaims := claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims).SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	s.logger.InfoContext(ctx, "operator logged in", "username", username)
	return signed, expiresAt, nil
}

// ValidateToken parses and verifies a bearer token.
func (s *AuthService) ValidateToken(tokenString string) (*AuthenticatedUser, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	tokenClaims, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	userID, err := uuid.Parse(tokenClaims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid token subject: %w", err)
	}
	return &AuthenticatedUser{ID: userID, Username: tokenClaims.Username}, nil
}

// CreateUser provisions an operator account with a bcrypt-hashed password.
func (s *AuthService) CreateUser(ctx context.Context, username, password, displayName string) (*domain.AdminUser, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := &domain.AdminUser{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "operator account created", "username", username)
	return user, nil
}
