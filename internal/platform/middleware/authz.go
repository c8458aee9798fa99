// Copyright (c) 2026 Bloomify. All rights reserved.

package middleware

import (
	"net/http"
	"strings"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/ctxutil"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/respond"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/sec"
)

// TokenVerifier verifies access tokens. Implemented by [sec.TokenService].
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// Authenticate reads an optional 'Authorization: Bearer <token>' header.
//
// Requests without the header continue anonymously. A present but invalid
// token is rejected with 401 so a stale client notices and refreshes.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks anonymous requests. Mount after [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
