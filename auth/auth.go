// Package auth implements signup/login and the session tokens clients
// present in the x-auth-token header.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"

	"carpool-matching-service/apperr"
	"carpool-matching-service/models"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt input limit
	hashCost       = 10
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Store interface {
	CreateUser(ctx context.Context, u models.User) (int64, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
}

// Claims is the JWT payload: the user id and role, so handlers can
// dispatch on role without a DB round trip.
type Claims struct {
	UserID int64       `json:"uid"`
	Role   models.Role `json:"role"`
	jwt.StandardClaims
}

type Service struct {
	store  Store
	secret []byte
	ttl    time.Duration
}

func NewService(store Store, secret string, ttl time.Duration) *Service {
	return &Service{store: store, secret: []byte(secret), ttl: ttl}
}

func (s *Service) Signup(ctx context.Context, name, email, password string, role models.Role) (models.User, string, error) {
	if strings.TrimSpace(name) == "" {
		return models.User{}, "", apperr.Invalid("name is required")
	}
	if err := validateEmail(email); err != nil {
		return models.User{}, "", apperr.Invalid("invalid email: %v", err)
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return models.User{}, "", apperr.Invalid("password must be %d to %d characters", minPasswordLen, maxPasswordLen)
	}
	if !role.Valid() || role == models.RoleAdmin {
		return models.User{}, "", apperr.Invalid("role must be %q or %q", models.RoleDriver, models.RoleClient)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return models.User{}, "", apperr.Internal("hash password", err)
	}
	u := models.User{Name: name, Email: strings.ToLower(email), PasswordHash: hash, Role: role}
	id, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return models.User{}, "", err
	}
	u.ID = id

	token, err := s.IssueToken(u)
	if err != nil {
		return models.User{}, "", err
	}
	return u, token, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (models.User, string, error) {
	u, err := s.store.UserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		// Same message for unknown email and bad password.
		if apperr.KindOf(err) == apperr.KindNotFound {
			return models.User{}, "", apperr.Invalid("invalid credentials")
		}
		return models.User{}, "", err
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return models.User{}, "", apperr.Invalid("invalid credentials")
	}
	token, err := s.IssueToken(u)
	if err != nil {
		return models.User{}, "", err
	}
	return u, token, nil
}

func (s *Service) Me(ctx context.Context, userID int64) (models.User, error) {
	return s.store.UserByID(ctx, userID)
}

func (s *Service) IssueToken(u models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: u.ID,
		Role:   u.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", apperr.Internal("sign token", err)
	}
	return token, nil
}

// ParseToken validates the signature and expiry and returns the claims.
func (s *Service) ParseToken(tokenString string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("empty")
	}
	if strings.Count(email, "@") != 1 {
		return fmt.Errorf("must contain exactly one @")
	}
	return nil
}
