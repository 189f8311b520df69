package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDisabled           = errors.New("authentication disabled")
	ErrInvalidToken       = errors.New("invalid token")
)

// Subject is the token subject of the single editor account.
const Subject = "editor"

const tokenTTL = 24 * time.Hour

// Service guards the editor behind one shared access password. With no
// password hash configured every request is let through.
type Service struct {
	passwordHash []byte
	jwtSecret    []byte
	now          func() time.Time
}

func NewService(passwordHash, jwtSecret string) *Service {
	return &Service{
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(jwtSecret),
		now:          time.Now,
	}
}

type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Service) Enabled() bool {
	return len(s.passwordHash) > 0
}

// HashPassword returns the bcrypt hash to configure as ACCESS_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) Login(password string) (*AuthResult, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueToken(Subject)
}

func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", errors.Join(ErrInvalidToken, err))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token subject: %w", ErrInvalidToken)
	}
	return subject, nil
}

func (s *Service) issueToken(subject string) (*AuthResult, error) {
	now := s.now()
	expires := now.Add(tokenTTL)
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": expires.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &AuthResult{Token: signed, ExpiresAt: time.Unix(expires.Unix(), 0).UTC()}, nil
}
