// Package repository contains the repository layer for the Expedientes API
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stratandtax/expedientesapi/internal/models"
)

// ErrSessionNotFound is returned when no session exists for a username
var ErrSessionNotFound = errors.New("session not found")

// SessionStore tracks at most one active session per username
type SessionStore interface {
	// Put stores the session, replacing any existing session for the username
	Put(ctx context.Context, session *models.SessionModel) error
	// Get returns the session for the username or ErrSessionNotFound
	Get(ctx context.Context, username string) (*models.SessionModel, error)
	// Touch refreshes the last access time of an existing session
	Touch(ctx context.Context, username string, at time.Time) error
	// Delete removes the session for the username; deleting a missing session is not an error
	Delete(ctx context.Context, username string) error
}

const sessionKeyPrefix = "sessions:"

// RedisSessionStore is the Redis-backed SessionStore.
// The per-username HSET overwrite is what enforces single-active-session:
// two concurrent logins race to one winning token, never a torn state.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a session store on the given Redis client
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(username string) string {
	return sessionKeyPrefix + username
}

// Put stores the session, replacing any existing one for the username
func (s *RedisSessionStore) Put(ctx context.Context, session *models.SessionModel) error {
	return s.client.HSet(ctx, sessionKey(session.Username),
		"token", session.Token,
		"last_access", session.LastAccess.Format(time.RFC3339Nano),
	).Err()
}

// Get returns the session for the username or ErrSessionNotFound
func (s *RedisSessionStore) Get(ctx context.Context, username string) (*models.SessionModel, error) {
	fields, err := s.client.HGetAll(ctx, sessionKey(username)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrSessionNotFound
	}

	lastAccess, err := time.Parse(time.RFC3339Nano, fields["last_access"])
	if err != nil {
		lastAccess = time.Time{}
	}
	return &models.SessionModel{
		Username:   username,
		Token:      fields["token"],
		LastAccess: lastAccess,
	}, nil
}

// Touch refreshes the last access time of an existing session
func (s *RedisSessionStore) Touch(ctx context.Context, username string, at time.Time) error {
	return s.client.HSet(ctx, sessionKey(username),
		"last_access", at.Format(time.RFC3339Nano),
	).Err()
}

// Delete removes the session for the username
func (s *RedisSessionStore) Delete(ctx context.Context, username string) error {
	return s.client.Del(ctx, sessionKey(username)).Err()
}
