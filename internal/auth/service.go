package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abduss/filestore/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxPasswordLength = 72 // bcrypt limit
	minPasswordLength = 6
	tokenIssuer       = "filestore"
)

// userStore abstracts the persistence layer.
type userStore interface {
	CreateUser(ctx context.Context, email, hashedPassword string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
}

// Service encapsulates authentication use cases.
type Service struct {
	store   userStore
	cfg     config.AuthConfig
	nowFunc func() time.Time
	parser  *jwt.Parser
}

// NewService creates a Service with dependencies.
func NewService(store userStore, cfg config.AuthConfig) *Service {
	return &Service{
		store:   store,
		cfg:     cfg,
		nowFunc: time.Now,
		parser:  jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})),
	}
}

// Credentials carries an email and password pair.
type Credentials struct {
	Email    string
	Password string
}

// UserClaims describes the validated identity extracted from an access token.
type UserClaims struct {
	Email     string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Register creates a new user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, in Credentials) (User, error) {
	if err := validateCredentials(in.Email, in.Password); err != nil {
		return User{}, err
	}

	hashed, err := hashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, normalizeEmail(in.Email), hashed)
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return User{}, ErrEmailAlreadyExists
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	user.HashedPassword = ""
	return user, nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, in Credentials) (AccessToken, error) {
	if err := validateCredentials(in.Email, in.Password); err != nil {
		return AccessToken{}, ErrInvalidCredentials
	}

	user, err := s.store.FindUserByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return AccessToken{}, ErrInvalidCredentials
		}
		return AccessToken{}, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(in.Password)); err != nil {
		return AccessToken{}, ErrInvalidCredentials
	}

	token, err := s.generateAccessToken(user, s.nowFunc())
	if err != nil {
		return AccessToken{}, fmt.Errorf("generate access token: %w", err)
	}
	return token, nil
}

// Lookup returns the user registered under email.
func (s *Service) Lookup(ctx context.Context, email string) (User, error) {
	user, err := s.store.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return User{}, err
	}
	user.HashedPassword = ""
	return user, nil
}

// ValidateAccessToken verifies the token signature and extracts user claims.
func (s *Service) ValidateAccessToken(tokenString string) (UserClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return UserClaims{}, ErrUnauthorized
	}

	parsed, err := s.parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.AccessTokenSecret), nil
	})
	if err != nil || !parsed.Valid {
		return UserClaims{}, ErrUnauthorized
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return UserClaims{}, ErrUnauthorized
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return UserClaims{}, ErrUnauthorized
	}

	expFloat, okExp := claims["exp"].(float64)
	if !okExp {
		return UserClaims{}, ErrUnauthorized
	}
	exp := time.Unix(int64(expFloat), 0)

	iat := time.Time{}
	if iatFloat, ok := claims["iat"].(float64); ok {
		iat = time.Unix(int64(iatFloat), 0)
	}

	if exp.Before(s.nowFunc()) {
		return UserClaims{}, ErrUnauthorized
	}

	return UserClaims{
		Email:     sub,
		ExpiresAt: exp,
		IssuedAt:  iat,
	}, nil
}

func (s *Service) generateAccessToken(user User, now time.Time) (AccessToken, error) {
	expiresAt := now.Add(s.cfg.AccessTokenTTL)
	claims := jwt.MapClaims{
		"sub": user.Email,
		"iss": tokenIssuer,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.AccessTokenSecret))
	if err != nil {
		return AccessToken{}, err
	}

	return AccessToken{Token: signed, ExpiresAt: expiresAt}, nil
}

func hashPassword(password string, cost int) (string, error) {
	if len(password) > maxPasswordLength {
		return "", fmt.Errorf("password exceeds maximum length of %d characters", maxPasswordLength)
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") || strings.ContainsAny(email, "/\\") {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(password) == "" || len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return ErrInvalidPassword
	}
	return nil
}
