package service

import (
	"context"
	"testing"
	"time"

	"github.com/stratandtax/expedientesapi/internal/models"
	"github.com/stratandtax/expedientesapi/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSessionStore is an in-memory SessionStore for tests
type fakeSessionStore struct {
	sessions map[string]models.SessionModel
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]models.SessionModel{}}
}

func (f *fakeSessionStore) Put(_ context.Context, session *models.SessionModel) error {
	f.sessions[session.Username] = *session
	return nil
}

func (f *fakeSessionStore) Get(_ context.Context, username string) (*models.SessionModel, error) {
	session, ok := f.sessions[username]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return &session, nil
}

func (f *fakeSessionStore) Touch(_ context.Context, username string, at time.Time) error {
	if session, ok := f.sessions[username]; ok {
		session.LastAccess = at
		f.sessions[username] = session
	}
	return nil
}

func (f *fakeSessionStore) Delete(_ context.Context, username string) error {
	delete(f.sessions, username)
	return nil
}

func newTestSessionService(t *testing.T) (*SessionService, *fakeSessionStore) {
	t.Helper()
	store := newFakeSessionStore()
	svc, err := NewSessionService(store, map[string]string{
		"admin":  "secreto1",
		"backup": "secreto2",
	})
	require.NoError(t, err)
	return svc, store
}

func TestLoginIssuesSession(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()

	session, err := svc.Login(ctx, "admin", "secreto1")
	require.NoError(t, err)
	assert.Equal(t, "admin", session.Username)
	assert.NotEmpty(t, session.Token)

	require.NoError(t, svc.Validate(ctx, "admin", session.Token))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "secreto1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSecondLoginInvalidatesFirstToken(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()

	first, err := svc.Login(ctx, "admin", "secreto1")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "admin", "secreto1")
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
	assert.ErrorIs(t, svc.Validate(ctx, "admin", first.Token), ErrInvalidSession)
	assert.NoError(t, svc.Validate(ctx, "admin", second.Token))
}

func TestValidateRefreshesLastAccess(t *testing.T) {
	svc, store := newTestSessionService(t)
	ctx := context.Background()

	session, err := svc.Login(ctx, "admin", "secreto1")
	require.NoError(t, err)

	stale := time.Now().Add(-time.Hour)
	require.NoError(t, store.Touch(ctx, "admin", stale))

	require.NoError(t, svc.Validate(ctx, "admin", session.Token))
	refreshed, err := store.Get(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, refreshed.LastAccess.After(stale))
}

func TestValidateRejectsWrongUserOrToken(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()

	adminSession, err := svc.Login(ctx, "admin", "secreto1")
	require.NoError(t, err)

	// a valid token is bound to its username
	assert.ErrorIs(t, svc.Validate(ctx, "backup", adminSession.Token), ErrInvalidSession)
	assert.ErrorIs(t, svc.Validate(ctx, "admin", "forged-token"), ErrInvalidSession)
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, _ := newTestSessionService(t)
	ctx := context.Background()

	session, err := svc.Login(ctx, "admin", "secreto1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, "admin"))
	assert.ErrorIs(t, svc.Validate(ctx, "admin", session.Token), ErrInvalidSession)

	// logging out with no active session is not an error
	require.NoError(t, svc.Logout(ctx, "admin"))
}
