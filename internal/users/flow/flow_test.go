// Copyright (c) 2026 Bloomify. All rights reserved.

package flow_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/flow"
)

const testSecret = "flow-secret-for-tests-0123456789abcdef"

func newManager(t *testing.T, opts ...flow.Option) (*flow.Manager, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return flow.NewManager(testSecret, "bloomify.app", flow.NewRedisBurnList(client), opts...), server
}

func signupClaims(state flow.State) *flow.Claims {
	return &flow.Claims{Flow: flow.Signup, State: state, Email: "a@x.com", Session: "sid-1"}
}

/*
TestManager_IssueAndParse round-trips a token and checks it is bound to its journey.
*/
func TestManager_IssueAndParse(t *testing.T) {
	manager, _ := newManager(t)
	ctx := context.Background()

	token, err := manager.Issue(signupClaims(flow.StateCredentialsSubmitted))
	require.NoError(t, err)

	claims, err := manager.Parse(ctx, flow.Signup, token)
	require.NoError(t, err)
	assert.Equal(t, flow.StateCredentialsSubmitted, claims.State)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "sid-1", claims.Session)
	assert.NotEmpty(t, claims.ID)

	_, err = manager.Parse(ctx, flow.PasswordReset, token)
	assert.ErrorIs(t, err, flow.ErrInvalid)
}

/*
TestManager_RejectsForeignTokens covers garbage, other keys and expiry.
*/
func TestManager_RejectsForeignTokens(t *testing.T) {
	now := time.Now()
	manager, _ := newManager(t, flow.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	foreign := flow.NewManager("another-secret-entirely-0123456789", "bloomify.app", nil)
	foreignToken, err := foreign.Issue(signupClaims(flow.StateProfilePending))
	require.NoError(t, err)

	valid, err := manager.Issue(signupClaims(flow.StateOTPPending))
	require.NoError(t, err)

	_, err = manager.Parse(ctx, flow.Signup, "")
	assert.ErrorIs(t, err, flow.ErrInvalid)

	_, err = manager.Parse(ctx, flow.Signup, "not.a.jwt")
	assert.ErrorIs(t, err, flow.ErrInvalid)

	_, err = manager.Parse(ctx, flow.Signup, foreignToken)
	assert.ErrorIs(t, err, flow.ErrInvalid)

	now = now.Add(flow.DefaultTTL + time.Minute)
	_, err = manager.Parse(ctx, flow.Signup, valid)
	assert.ErrorIs(t, err, flow.ErrInvalid)
}

/*
TestManager_AdvanceBurnsPrevious ensures a spent token is never accepted again.
*/
func TestManager_AdvanceBurnsPrevious(t *testing.T) {
	manager, _ := newManager(t)
	ctx := context.Background()

	first, err := manager.Issue(signupClaims(flow.StateCredentialsSubmitted))
	require.NoError(t, err)

	current, err := manager.Parse(ctx, flow.Signup, first)
	require.NoError(t, err)

	second, err := manager.Advance(ctx, current, current.Next(flow.StateOTPPending))
	require.NoError(t, err)

	_, err = manager.Parse(ctx, flow.Signup, first)
	assert.ErrorIs(t, err, flow.ErrInvalid)

	_, err = manager.Advance(ctx, current, current.Next(flow.StateOTPPending))
	assert.ErrorIs(t, err, flow.ErrInvalid)

	next, err := manager.Parse(ctx, flow.Signup, second)
	require.NoError(t, err)
	assert.Equal(t, flow.StateOTPPending, next.State)
	assert.Equal(t, "sid-1", next.Session)

	require.NoError(t, manager.Finish(ctx, next))
	_, err = manager.Parse(ctx, flow.Signup, second)
	assert.ErrorIs(t, err, flow.ErrInvalid)
}

/*
TestManager_Require redirects requests that are not at an allowed step.
*/
func TestManager_Require(t *testing.T) {
	manager, _ := newManager(t)

	reached := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := flow.FromContext(r.Context())
		require.NotNil(t, claims)
		_, _ = w.Write([]byte(claims.State))
	})
	gate := manager.Require(flow.Signup, "/signup", flow.StateOTPPending)(reached)

	pending, err := manager.Issue(signupClaims(flow.StateOTPPending))
	require.NoError(t, err)
	verified, err := manager.Issue(signupClaims(flow.StateProfilePending))
	require.NoError(t, err)

	tests := []struct {
		name     string
		cookie   string
		status   int
		location string
	}{
		{"allowed_state", pending, http.StatusOK, ""},
		{"other_state", verified, http.StatusSeeOther, "/signup"},
		{"garbage", "garbage", http.StatusSeeOther, "/signup"},
		{"missing", "", http.StatusSeeOther, "/signup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodPost, "/api/v1/signup/verify", nil)
			if tt.cookie != "" {
				request.AddCookie(&http.Cookie{Name: string(flow.Signup), Value: tt.cookie})
			}
			recorder := httptest.NewRecorder()

			gate.ServeHTTP(recorder, request)

			assert.Equal(t, tt.status, recorder.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, recorder.Header().Get("Location"))
			} else {
				assert.Equal(t, string(flow.StateOTPPending), recorder.Body.String())
			}
		})
	}
}

/*
TestCookies checks the attributes of the journey cookie.
*/
func TestCookies(t *testing.T) {
	manager, _ := newManager(t)

	recorder := httptest.NewRecorder()
	manager.SetCookie(recorder, flow.PasswordReset, "token")
	flow.ClearCookie(recorder, flow.Signup)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 2)

	assert.Equal(t, "forgot-password-flow", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, int(flow.DefaultTTL.Seconds()), cookies[0].MaxAge)

	assert.Equal(t, "signup-flow", cookies[1].Name)
	assert.Less(t, cookies[1].MaxAge, 0)
}
