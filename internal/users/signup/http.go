// Copyright (c) 2026 Bloomify. All rights reserved.

package signup

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/request"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/respond"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/validate"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/flow"
)

// # Definitions & Constructors

// Handler exposes the signup and password-reset journeys.
type Handler struct {
	service     *Service
	flows       *flow.Manager
	signupEntry string
	resetEntry  string
}

// NewHandler constructs a new [Handler]. Requests that arrive at a step out
// of order are redirected to appBaseURL + "/signup" or "/login".
func NewHandler(service *Service, flows *flow.Manager, appBaseURL string) *Handler {
	base := strings.TrimRight(appBaseURL, "/")
	return &Handler{
		service:     service,
		flows:       flows,
		signupEntry: base + "/signup",
		resetEntry:  base + "/login",
	}
}

// Routes returns the signup journey router.
//
// # Endpoints
//   - POST /        : Submit credentials
//   - POST /otp     : Send or resend the code
//   - POST /verify  : Check the code, create the account
//   - POST /details : Username and university
//   - GET  /state   : Current step
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.start)

	router.With(handler.flows.Require(flow.Signup, handler.signupEntry,
		flow.StateCredentialsSubmitted, flow.StateOTPPending)).Post("/otp", handler.requestOTP)

	router.With(handler.flows.Require(flow.Signup, handler.signupEntry,
		flow.StateOTPPending)).Post("/verify", handler.verifyOTP)

	router.With(handler.flows.Require(flow.Signup, handler.signupEntry,
		flow.StateProfilePending)).Post("/details", handler.completeProfile)

	router.With(handler.flows.Require(flow.Signup, handler.signupEntry)).Get("/state", handler.state)

	return router
}

// ResetRoutes returns the password-reset journey router.
//
// # Endpoints
//   - POST /       : Send a reset code
//   - POST /verify : Check the code
//
// The journey ends at POST /auth/change-password.
func (handler *Handler) ResetRoutes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.startReset)
	router.With(handler.flows.Require(flow.PasswordReset, handler.resetEntry,
		flow.StateOTPPending)).Post("/verify", handler.verifyReset)

	return router
}

// # Request Payloads

type startRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	OTP   string `json:"otp"`
	Token string `json:"token"`
}

type detailsRequest struct {
	Username   string `json:"username"`
	University string `json:"university"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type stepResponse struct {
	State flow.State `json:"state"`
	Token string     `json:"token,omitempty"`
}

// # Signup Handlers

/*
Start submits credentials.

POST /api/v1/signup

Response:
  - 201: journey opened, signup-flow cookie set
  - 400: invalid input or EMAIL_TAKEN
*/
func (handler *Handler) start(writer http.ResponseWriter, request *http.Request) {
	var input startRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	step, err := handler.service.Start(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.flows.SetCookie(writer, flow.Signup, step.FlowToken)
	respond.Created(writer, stepResponse{State: step.State})
}

/*
RequestOTP mails a verification code.

POST /api/v1/signup/otp

Response:
  - 200: {state, token}; token is the challenge to send back with the code
  - 429: resend inside the cooldown
  - 502: mail relay failure
*/
func (handler *Handler) requestOTP(writer http.ResponseWriter, request *http.Request) {
	step, err := handler.service.RequestOTP(request.Context(), flow.FromContext(request.Context()))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.flows.SetCookie(writer, flow.Signup, step.FlowToken)
	respond.OK(writer, stepResponse{State: step.State, Token: step.Challenge})
}

/*
VerifyOTP checks the code and creates the account.

POST /api/v1/signup/verify

Response:
  - 200: {state: profile_pending}
  - 400: OTP_MALFORMED, OTP_EXPIRED, OTP_MISMATCH or OTP_CONSUMED
  - 404: stashed credentials expired
*/
func (handler *Handler) verifyOTP(writer http.ResponseWriter, request *http.Request) {
	input, ok := decodeVerify(writer, request)
	if !ok {
		return
	}

	step, _, err := handler.service.VerifyOTP(request.Context(), flow.FromContext(request.Context()), input.OTP, input.Token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.flows.SetCookie(writer, flow.Signup, step.FlowToken)
	respond.OK(writer, stepResponse{State: step.State})
}

/*
CompleteProfile sets username and university and ends the journey.

POST /api/v1/signup/details

Response:
  - 200: {state: complete}, cookie cleared
  - 409: username taken
*/
func (handler *Handler) completeProfile(writer http.ResponseWriter, request *http.Request) {
	var input detailsRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.CompleteProfile(request.Context(), flow.FromContext(request.Context()), input.Username, input.University); err != nil {
		respond.Error(writer, request, err)
		return
	}

	flow.ClearCookie(writer, flow.Signup)
	respond.OK(writer, stepResponse{State: flow.StateComplete})
}

// state reports where the journey is, for the front-end to pick a screen.
func (handler *Handler) state(writer http.ResponseWriter, request *http.Request) {
	claims := flow.FromContext(request.Context())
	respond.OK(writer, map[string]string{
		"flow":  string(claims.Flow),
		"state": string(claims.State),
		"email": claims.Email,
	})
}

// # Reset Handlers

/*
StartReset sends a reset code if the address has an account.

POST /api/v1/password-reset

Response:
  - 202: {state, token} for known and unknown addresses alike
*/
func (handler *Handler) startReset(writer http.ResponseWriter, request *http.Request) {
	var input resetRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	step, err := handler.service.StartReset(request.Context(), input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.flows.SetCookie(writer, flow.PasswordReset, step.FlowToken)
	respond.JSON(writer, http.StatusAccepted, respond.SuccessEnvelope{Data: stepResponse{State: step.State, Token: step.Challenge}})
}

// verifyReset checks the reset code. POST /api/v1/password-reset/verify
func (handler *Handler) verifyReset(writer http.ResponseWriter, request *http.Request) {
	input, ok := decodeVerify(writer, request)
	if !ok {
		return
	}

	step, err := handler.service.VerifyReset(request.Context(), flow.FromContext(request.Context()), input.OTP, input.Token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.flows.SetCookie(writer, flow.PasswordReset, step.FlowToken)
	respond.OK(writer, stepResponse{State: step.State})
}

func decodeVerify(writer http.ResponseWriter, request *http.Request) (verifyRequest, bool) {
	var input verifyRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return input, false
	}

	validator := &validate.Validator{}
	validator.Required(FieldOTP, input.OTP).Required(FieldToken, input.Token)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return input, false
	}
	return input, true
}
