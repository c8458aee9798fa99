// Copyright (c) 2026 Bloomify. All rights reserved.

/*
Package oauth implements Google sign-in.

The login route sends the browser to Google with a random state kept in an
httpOnly cookie. The callback checks the state, resolves the account through
[auth.Service.SignInWithOAuth], opens a session and sends the browser either
to profile completion (with a signup-flow cookie) or to the dashboard.

Every outcome of the callback is a redirect; failures land on the login page
with an error code in the query string.
*/
package oauth

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/constants"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/ctxutil"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/sec"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/auth"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/flow"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/signup"
)

const (
	stateCookiePath = "/api/v1/auth/google"
	stateTTL        = 10 * time.Minute
	stateLength     = 24
)

// Accounts resolves and signs in provider identities. Implemented by [auth.Service].
type Accounts interface {
	SignInWithOAuth(ctx context.Context, email string) (*auth.User, bool, error)
	IssueSession(ctx context.Context, user *auth.User, meta auth.SessionMeta) (*auth.LoginSession, error)
}

// Journeys opens profile completion for new accounts. Implemented by [signup.Service].
type Journeys interface {
	BeginOAuthProfile(ctx context.Context, user *auth.User) (*signup.Step, error)
}

// Handler serves /auth/google.
type Handler struct {
	provider   Provider
	accounts   Accounts
	journeys   Journeys
	flows      *flow.Manager
	appBaseURL string
}

// NewHandler constructs a new [Handler].
func NewHandler(provider Provider, accounts Accounts, journeys Journeys, flows *flow.Manager, appBaseURL string) *Handler {
	return &Handler{
		provider:   provider,
		accounts:   accounts,
		journeys:   journeys,
		flows:      flows,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
	}
}

// Routes returns the Google sign-in router.
//
// # Endpoints
//   - GET /login    : Redirect to Google
//   - GET /callback : Google redirects back here
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/login", handler.login)
	router.Get("/callback", handler.callback)

	return router
}

func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	state, err := sec.GenerateSecureToken(stateLength)
	if err != nil {
		handler.fail(writer, request, "state_unavailable", err)
		return
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.OAuthStateCookieName,
		Value:    state,
		Path:     stateCookiePath,
		MaxAge:   int(stateTTL.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(writer, request, handler.provider.AuthCodeURL(state), http.StatusFound)
}

/*
Callback finishes Google sign-in.

GET /api/v1/auth/google/callback?state=...&code=...

Redirects:
  - /signup/details: new or incomplete account, signup-flow cookie set
  - /dashboard: returning account
  - /login?error=...: state mismatch, consent denied, or provider failure
*/
func (handler *Handler) callback(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	query := request.URL.Query()

	cookie, err := request.Cookie(constants.OAuthStateCookieName)
	clearStateCookie(writer)
	if err != nil || cookie.Value == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(query.Get("state"))) != 1 {
		handler.fail(writer, request, "state_mismatch", nil)
		return
	}

	if query.Get("error") != "" {
		handler.fail(writer, request, "consent_denied", nil)
		return
	}

	identity, err := handler.provider.Identify(ctx, query.Get("code"))
	if err != nil {
		handler.fail(writer, request, "provider_failed", err)
		return
	}
	if !identity.EmailVerified {
		handler.fail(writer, request, "email_unverified", nil)
		return
	}

	user, created, err := handler.accounts.SignInWithOAuth(ctx, identity.Email)
	if err != nil {
		handler.fail(writer, request, "signin_failed", err)
		return
	}

	session, err := handler.accounts.IssueSession(ctx, user, auth.MetaFromRequest(request))
	if err != nil {
		handler.fail(writer, request, "signin_failed", err)
		return
	}
	auth.SetRefreshCookie(writer, session)

	ctxutil.GetLogger(ctx).InfoContext(ctx, "oauth_signin",
		slog.String("user_id", user.ID),
		slog.Bool("created", created),
	)

	if !created && user.ProfileComplete() {
		http.Redirect(writer, request, handler.appBaseURL+"/dashboard", http.StatusSeeOther)
		return
	}

	step, err := handler.journeys.BeginOAuthProfile(ctx, user)
	if err != nil {
		handler.fail(writer, request, "signin_failed", err)
		return
	}
	handler.flows.SetCookie(writer, flow.Signup, step.FlowToken)

	http.Redirect(writer, request, handler.appBaseURL+"/signup/details", http.StatusSeeOther)
}

func (handler *Handler) fail(writer http.ResponseWriter, request *http.Request, code string, err error) {
	attrs := []any{slog.String("reason", code)}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "oauth_signin_failed", attrs...)

	http.Redirect(writer, request, handler.appBaseURL+"/login?error="+url.QueryEscape(code), http.StatusSeeOther)
}

func clearStateCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.OAuthStateCookieName,
		Value:    "",
		Path:     stateCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
