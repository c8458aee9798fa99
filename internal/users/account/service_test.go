// Copyright (c) 2026 Bloomify. All rights reserved.

package account_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/ctxutil"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/sec"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/account"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/auth"
	"github.com/abhijeetsuryawanshi12/Bloomify/pkg/pointer"
)

// # Fakes

type memoryUsers struct {
	mu     sync.Mutex
	users  map[string]*auth.User
	writes int
}

func (m *memoryUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (m *memoryUsers) UpdateUsername(_ context.Context, userID, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, user := range m.users {
		if id != userID && pointer.Val(user.Username) == username {
			return auth.ErrUsernameTaken
		}
	}
	user, ok := m.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	m.writes++
	user.Username = &username
	return nil
}

func (m *memoryUsers) UpdateProfile(ctx context.Context, userID, username, university string) error {
	if err := m.UpdateUsername(ctx, userID, username); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID].University = &university
	return nil
}

type memorySessions struct {
	sessions []auth.Session
}

func (m *memorySessions) FindActiveByUserID(_ context.Context, userID string) ([]auth.Session, error) {
	var active []auth.Session
	for _, session := range m.sessions {
		if session.UserID == userID && !session.IsRevoked {
			active = append(active, session)
		}
	}
	return active, nil
}

func (m *memorySessions) RevokeOwned(_ context.Context, userID, sessionID string) error {
	for i := range m.sessions {
		if m.sessions[i].ID == sessionID && m.sessions[i].UserID == userID && !m.sessions[i].IsRevoked {
			m.sessions[i].IsRevoked = true
			return nil
		}
	}
	return apperr.NotFound("Session")
}

type staticChats map[string][]string

func (c staticChats) ChatIDs(_ context.Context, ownerID string) ([]string, error) {
	return c[ownerID], nil
}

// # Fixture

type fixture struct {
	service  *account.Service
	users    *memoryUsers
	sessions *memorySessions
}

func newFixture() *fixture {
	users := &memoryUsers{users: map[string]*auth.User{
		"u-alice": {ID: "u-alice", Email: "alice@x.com", Username: pointer.To("alice")},
		"u-bob":   {ID: "u-bob", Email: "bob@x.com", Username: pointer.To("bob")},
		"u-new":   {ID: "u-new", Email: "new@x.com", IsOAuthUser: true},
	}}
	sessions := &memorySessions{sessions: []auth.Session{
		{ID: "s-1", UserID: "u-alice", UserAgent: "firefox", ExpiresAt: time.Now().Add(time.Hour)},
		{ID: "s-2", UserID: "u-alice", UserAgent: "curl", ExpiresAt: time.Now().Add(time.Hour)},
		{ID: "s-3", UserID: "u-bob", UserAgent: "safari", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	chats := staticChats{"u-alice": {"c-2", "c-1"}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		service:  account.NewService(users, sessions, chats, logger),
		users:    users,
		sessions: sessions,
	}
}

// # Tests

/*
TestService_ChangeUsername covers trimming, no-op renames and conflicts.
*/
func TestService_ChangeUsername(t *testing.T) {
	ctx := context.Background()

	t.Run("taken_by_other_user", func(t *testing.T) {
		f := newFixture()

		_, err := f.service.ChangeUsername(ctx, "u-alice", "bob")
		assert.True(t, apperr.IsConflict(err))

		alice, _ := f.users.FindByID(ctx, "u-alice")
		bob, _ := f.users.FindByID(ctx, "u-bob")
		assert.Equal(t, "alice", *alice.Username)
		assert.Equal(t, "bob", *bob.Username)
	})

	t.Run("same_user_is_noop", func(t *testing.T) {
		f := newFixture()

		user, err := f.service.ChangeUsername(ctx, "u-bob", "  bob ")
		require.NoError(t, err)
		assert.Equal(t, "bob", *user.Username)
		assert.Zero(t, f.users.writes)
	})

	t.Run("renamed", func(t *testing.T) {
		f := newFixture()

		user, err := f.service.ChangeUsername(ctx, "u-alice", " alice_2 ")
		require.NoError(t, err)
		assert.Equal(t, "alice_2", *user.Username)
	})

	t.Run("invalid", func(t *testing.T) {
		f := newFixture()

		for _, name := range []string{"ab", strings.Repeat("x", 33), "has space"} {
			_, err := f.service.ChangeUsername(ctx, "u-alice", name)
			ae := apperr.As(err)
			require.NotNil(t, ae, name)
			assert.Equal(t, "VALIDATION_ERROR", ae.Code)
		}
		assert.Zero(t, f.users.writes)
	})

	t.Run("unknown_user", func(t *testing.T) {
		f := newFixture()

		_, err := f.service.ChangeUsername(ctx, "ghost", "ghosty")
		assert.True(t, apperr.IsNotFound(err))
	})
}

/*
TestService_GetProfile joins chat refs and the completion flag.
*/
func TestService_GetProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	profile, err := f.service.GetProfile(ctx, "u-alice")
	require.NoError(t, err)
	assert.True(t, profile.ProfileComplete)
	assert.Equal(t, []string{"c-2", "c-1"}, profile.ChatRefs)

	profile, err = f.service.GetProfile(ctx, "u-new")
	require.NoError(t, err)
	assert.False(t, profile.ProfileComplete)
	assert.Empty(t, profile.ChatRefs)
	assert.NotNil(t, profile.ChatRefs)
}

/*
TestService_SetDetails validates before writing.
*/
func TestService_SetDetails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	err := f.service.SetDetails(ctx, "u-new", "newbie", " ")
	require.Error(t, err)
	assert.Zero(t, f.users.writes)

	assert.True(t, apperr.IsConflict(f.service.SetDetails(ctx, "u-new", "alice", "MIT")))

	require.NoError(t, f.service.SetDetails(ctx, "u-new", "newbie", " MIT "))
	user, _ := f.users.FindByID(ctx, "u-new")
	assert.Equal(t, "MIT", *user.University)
}

/*
TestService_Sessions scopes listing and revocation to the caller.
*/
func TestService_Sessions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sessions, err := f.service.ListSessions(ctx, "u-alice")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	assert.True(t, apperr.IsNotFound(f.service.RevokeSession(ctx, "u-alice", "s-3")))
	require.NoError(t, f.service.RevokeSession(ctx, "u-alice", "s-2"))

	sessions, err = f.service.ListSessions(ctx, "u-alice")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s-1", sessions[0].ID)
}

/*
TestHandler_ChangeUsername maps a taken name to 409 and needs a signed-in caller.
*/
func TestHandler_ChangeUsername(t *testing.T) {
	f := newFixture()
	routes := account.NewHandler(f.service).Routes()

	tests := []struct {
		name       string
		userID     string
		body       string
		wantStatus int
	}{
		{"anonymous", "", `{"username":"carol"}`, http.StatusUnauthorized},
		{"taken", "u-alice", `{"username":"bob"}`, http.StatusConflict},
		{"empty", "u-alice", `{"username":""}`, http.StatusBadRequest},
		{"ok", "u-alice", `{"username":"carol"}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodPut, "/username", strings.NewReader(tt.body))
			if tt.userID != "" {
				request = request.WithContext(ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{UserID: tt.userID}))
			}
			recorder := httptest.NewRecorder()

			routes.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request = request.WithContext(ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{UserID: "u-alice"}))
	recorder := httptest.NewRecorder()
	routes.ServeHTTP(recorder, request)
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Data struct {
			Username string   `json:"username"`
			ChatRefs []string `json:"chat_refs"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "carol", body.Data.Username)
	assert.Equal(t, []string{"c-2", "c-1"}, body.Data.ChatRefs)
}
