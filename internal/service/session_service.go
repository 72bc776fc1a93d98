// Package service contains the service layer for the Expedientes API
package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/stratandtax/expedientesapi/internal/models"
	"github.com/stratandtax/expedientesapi/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned on a failed login. It never says which
// of username or password was wrong.
var ErrInvalidCredentials = errors.New("usuario o contraseña incorrectos")

// ErrInvalidSession is returned when no matching session exists for a token
var ErrInvalidSession = errors.New("invalid or expired session")

const sessionTokenBytes = 32

// SessionService issues and validates opaque session tokens for the
// configured admin users. One active session per username: a new login
// replaces the previous token.
type SessionService struct {
	store       repository.SessionStore
	credentials map[string][]byte
}

// NewSessionService creates a session service over the given store.
// adminPairs maps usernames to their plaintext passwords from configuration;
// passwords are hashed here so login compares run through bcrypt.
func NewSessionService(store repository.SessionStore, adminPairs map[string]string) (*SessionService, error) {
	credentials := make(map[string][]byte, len(adminPairs))
	for username, password := range adminPairs {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %v", username, err)
		}
		credentials[username] = hashed
	}
	return &SessionService{store: store, credentials: credentials}, nil
}

// Login validates the credentials and issues a fresh session, invalidating
// any previously issued token for the username.
func (s *SessionService) Login(ctx context.Context, username, password string) (*models.SessionModel, error) {
	hashed, ok := s.credentials[username]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hashed, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %v", err)
	}

	session := &models.SessionModel{
		Username:   username,
		Token:      token,
		LastAccess: time.Now(),
	}
	if err := s.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %v", err)
	}
	return session, nil
}

// Validate checks that the token is the active one for the username and
// refreshes the session's last access time.
func (s *SessionService) Validate(ctx context.Context, username, token string) error {
	session, err := s.store.Get(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrInvalidSession
		}
		return err
	}
	if subtle.ConstantTimeCompare([]byte(session.Token), []byte(token)) != 1 {
		return ErrInvalidSession
	}
	if err := s.store.Touch(ctx, username, time.Now()); err != nil {
		return err
	}
	return nil
}

// Logout deletes the session for the username. Idempotent.
func (s *SessionService) Logout(ctx context.Context, username string) error {
	return s.store.Delete(ctx, username)
}

// newToken returns an unguessable opaque session token
func newToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
