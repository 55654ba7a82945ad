// Package auth guards the admin dashboard: a single shared password exchanged
// for a short-lived HS256 token.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminSubject = "admin"
	adminRole    = "admin"
)

var (
	ErrNotConfigured   = errors.New("admin password not configured")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidToken    = errors.New("invalid token")
)

// Token is a signed admin session token.
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Options configures an Authenticator.
type Options struct {
	Password     string // plain password, used when PasswordHash is empty
	PasswordHash string // bcrypt hash
	Secret       string // HMAC signing key
	TTL          time.Duration
}

// Authenticator checks the admin password and issues tokens.
type Authenticator struct {
	password string
	hash     []byte
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// New creates an Authenticator. A zero TTL defaults to 12 hours.
func New(opts Options) *Authenticator {
	if opts.TTL <= 0 {
		opts.TTL = 12 * time.Hour
	}
	a := &Authenticator{
		password: opts.Password,
		secret:   []byte(opts.Secret),
		ttl:      opts.TTL,
		now:      time.Now,
	}
	if opts.PasswordHash != "" {
		a.hash = []byte(opts.PasswordHash)
	}
	return a
}

// Configured reports whether a password is set.
func (a *Authenticator) Configured() bool {
	return len(a.hash) > 0 || a.password != ""
}

// CheckPassword compares the submitted password with the configured one.
func (a *Authenticator) CheckPassword(password string) error {
	if !a.Configured() {
		return ErrNotConfigured
	}

	if len(a.hash) > 0 {
		if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
			return ErrInvalidPassword
		}
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(a.password), []byte(password)) != 1 {
		return ErrInvalidPassword
	}
	return nil
}

// Login checks the password and issues a token on success.
func (a *Authenticator) Login(password string) (Token, error) {
	if err := a.CheckPassword(password); err != nil {
		return Token{}, err
	}
	return a.Issue()
}

// Issue signs a new admin token.
func (a *Authenticator) Issue() (Token, error) {
	if len(a.secret) == 0 {
		return Token{}, ErrNotConfigured
	}

	now := a.now()
	exp := now.Add(a.ttl)
	claims := jwt.MapClaims{
		"sub":  adminSubject,
		"role": adminRole,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return Token{Token: signed, ExpiresAt: time.Unix(exp.Unix(), 0).UTC()}, nil
}

// Verify validates a raw token and checks the admin role.
func (a *Authenticator) Verify(raw string) error {
	if len(a.secret) == 0 {
		return ErrInvalidToken
	}

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || claims["role"] != adminRole {
		return ErrInvalidToken
	}
	return nil
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// HashPassword returns the bcrypt hash of a password.
func HashPassword(plain string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}
