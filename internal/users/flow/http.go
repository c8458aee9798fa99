// Copyright (c) 2026 Bloomify. All rights reserved.

package flow

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/constants"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/ctxkey"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/ctxutil"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/respond"
)

// SetCookie stores token in the journey's cookie.
func (manager *Manager) SetCookie(writer http.ResponseWriter, name Name, token string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     string(name),
		Value:    token,
		Path:     constants.FlowCookiePath,
		MaxAge:   int(manager.ttl.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the journey's cookie.
func ClearCookie(writer http.ResponseWriter, name Name) {
	http.SetCookie(writer, &http.Cookie{
		Name:     string(name),
		Value:    "",
		Path:     constants.FlowCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

/*
FromRequest verifies the journey cookie on request and checks its state.

Returns:
  - *Claims: the verified payload
  - error: [ErrInvalid] when the cookie is absent, invalid or in another state
*/
func (manager *Manager) FromRequest(request *http.Request, name Name, allowed ...State) (*Claims, error) {
	cookie, err := request.Cookie(string(name))
	if err != nil {
		return nil, ErrInvalid
	}

	claims, err := manager.Parse(request.Context(), name, cookie.Value)
	if err != nil {
		return nil, err
	}

	if len(allowed) > 0 && !claims.In(allowed...) {
		return nil, ErrInvalid
	}
	return claims, nil
}

/*
Require gates a step of a journey.

Requests without a valid cookie in one of the allowed states are sent to entry
with 303 See Other. Storage failures still produce an error body.
*/
func (manager *Manager) Require(name Name, entry string, allowed ...State) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims, err := manager.FromRequest(request, name, allowed...)
			if err != nil {
				if appError := apperr.As(err); appError == nil {
					respond.Error(writer, request, err)
					return
				}

				ctxutil.GetLogger(request.Context()).InfoContext(request.Context(), "flow_gate_redirect",
					slog.String("flow", string(name)),
					slog.String("location", entry),
				)
				ClearCookie(writer, name)
				respond.SeeOther(writer, request, entry)
				return
			}

			ctx := context.WithValue(request.Context(), ctxkey.KeyFlow, claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// FromContext returns the claims stored by [Manager.Require], or nil.
func FromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ctxkey.KeyFlow).(*Claims)
	return claims
}
