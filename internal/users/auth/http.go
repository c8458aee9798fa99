// Copyright (c) 2026 Bloomify. All rights reserved.

package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/constants"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/ctxutil"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/middleware"
	requestutil "github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/request"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/respond"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/validate"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/flow"
)

// # Definitions & Constructors

// Handler implements the session endpoints under /auth.
type Handler struct {
	authService *Service
	flows       *flow.Manager
}

// NewHandler constructs a new [Handler]. flows verifies reset journeys for change-password.
func NewHandler(service *Service, flows *flow.Manager) *Handler {
	return &Handler{authService: service, flows: flows}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /login           : Password sign-in.
//   - POST /refresh         : Rotates the refresh cookie.
//   - POST /logout          : Revokes the refresh cookie.
//   - POST /change-password : Signed-in change or reset completion.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)
	router.Post("/change-password", handler.changePassword)

	return router
}

// # Request Payloads

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Response:
  - 200: access token and user profile, refresh cookie set
  - 401: generic invalid credentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.SignIn(request.Context(), input.Email, input.Password, MetaFromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	SetRefreshCookie(writer, session)
	respond.OK(writer, tokenResponse(session))
}

/*
Refresh issues a new access token using a valid refresh token.

POST /api/v1/auth/refresh

Response:
  - 200: new access token, rotated refresh cookie
  - 401: missing or invalid refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		respond.Error(writer, request, apperr.Unauthorized("Missing refresh token in cookies"))
		return
	}

	session, err := handler.authService.RefreshSession(request.Context(), cookie.Value, MetaFromRequest(request))
	if err != nil {
		if apperr.As(err) != nil {
			ClearRefreshCookie(writer)
		}
		respond.Error(writer, request, err)
		return
	}

	SetRefreshCookie(writer, session)
	respond.OK(writer, tokenResponse(session))
}

/*
Logout terminates the current user session.

POST /api/v1/auth/logout

Response:
  - 204: session revoked (or already gone), cookie cleared
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil && cookie.Value != "" {
		if err := handler.authService.Logout(request.Context(), cookie.Value); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	ClearRefreshCookie(writer)
	respond.NoContent(writer)
}

/*
ChangePassword updates a password.

POST /api/v1/auth/change-password

Description: A bearer token selects the signed-in mode and requires
current_password. Without one, a forgot-password-flow cookie at the verified
step selects the reset mode; the journey ends on success.

Response:
  - 200: password changed
  - 400: weak password
  - 401: wrong current password, or no session and no verified reset
  - 404: account vanished
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	var input changePasswordRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, MinPasswordLength)

	change := ChangePasswordInput{
		CurrentPassword: input.CurrentPassword,
		NewPassword:     input.NewPassword,
	}

	var resetClaims *flow.Claims

	if claims := ctxutil.GetAuthUser(request.Context()); claims != nil {
		validator.Required(FieldCurrentPassword, input.CurrentPassword)
		change.SessionUserID = claims.UserID
		if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil {
			change.RefreshToken = cookie.Value
		}
	} else {
		claims, err := handler.flows.FromRequest(request, flow.PasswordReset, flow.StateOTPVerified)
		if err != nil {
			if apperr.As(err) != nil {
				err = ErrNoAuthority
			}
			respond.Error(writer, request, err)
			return
		}
		resetClaims = claims
		change.ResetEmail = claims.Email
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ChangePassword(request.Context(), change); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// The journey ends only once the new password is stored, so a failed write can be retried.
	if resetClaims != nil {
		if err := handler.flows.Finish(request.Context(), resetClaims); err != nil {
			ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "password_reset_finish_failed",
				slog.Any("error", err),
			)
		}
		flow.ClearCookie(writer, flow.PasswordReset)
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Password changed successfully",
	})
}

// # Cookie & Response Helpers

// MetaFromRequest captures the client details recorded on a session.
func MetaFromRequest(request *http.Request) SessionMeta {
	return SessionMeta{
		UserAgent: request.UserAgent(),
		IPAddress: middleware.RealIP(request),
	}
}

// SetRefreshCookie stores the refresh token of session.
func SetRefreshCookie(writer http.ResponseWriter, session *LoginSession) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    session.RefreshToken,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  session.RefreshTokenExpiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearRefreshCookie expires the refresh cookie.
func ClearRefreshCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func tokenResponse(session *LoginSession) map[string]any {
	return map[string]any{
		FieldAccessToken: session.AccessToken,
		FieldTokenType:   "Bearer",
		FieldExpiresIn:   int(AccessTokenTTL / time.Second),
		FieldUser:        session.User,
	}
}
