// Copyright (c) 2026 Bloomify. All rights reserved.

package feedback

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/request"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/respond"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/validate"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/users/auth"
	"github.com/abhijeetsuryawanshi12/Bloomify/pkg/pointer"
)

// Field identifiers used in validation errors.
const (
	FieldColumn   = "column"
	FieldFeedback = "feedback"
)

// Users resolves the caller's e-mail and username. Implemented by *auth.PostgresUserRepository.
type Users interface {
	FindByID(ctx context.Context, id string) (*auth.User, error)
}

// Handler implements the HTTP layer for feedback.
//
// Every route expects the RequireAuth middleware in front of it.
type Handler struct {
	recorder *Recorder
	users    Users
}

// NewHandler constructs a new feedback [Handler].
func NewHandler(recorder *Recorder, users Users) *Handler {
	return &Handler{recorder: recorder, users: users}
}

// Routes returns a [chi.Router] with the feedback endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.getStatus)
	router.Post("/", handler.record)

	return router
}

type recordRequest struct {
	Column   string `json:"column"`
	Feedback string `json:"feedback"`
}

func (handler *Handler) author(request *http.Request) (*Author, error) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		return nil, err
	}

	user, err := handler.users.FindByID(request.Context(), userID)
	if err != nil {
		return nil, err
	}
	return &Author{Email: user.Email, Username: pointer.Val(user.Username)}, nil
}

// GET /api/v1/feedback.
func (handler *Handler) getStatus(writer http.ResponseWriter, request *http.Request) {
	author, err := handler.author(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	status, err := handler.recorder.Status(request.Context(), author.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, status)
}

/*
POST /api/v1/feedback.

Request body:
  - column: "General" for the free-text log, otherwise a feature column
  - feedback: the text

Response:
  - 204: recorded
  - 404: no row for the caller or no such column
  - 502: the spreadsheet is unavailable
*/
func (handler *Handler) record(writer http.ResponseWriter, request *http.Request) {
	author, err := handler.author(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input recordRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	input.Column = strings.TrimSpace(input.Column)

	validator := &validate.Validator{}
	validator.Required(FieldColumn, input.Column)
	validator.Required(FieldFeedback, input.Feedback).MaxLen(FieldFeedback, input.Feedback, MaxFeedbackLength)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if input.Column == ColumnGeneral {
		err = handler.recorder.RecordGeneral(request.Context(), *author, input.Feedback)
	} else {
		err = handler.recorder.RecordFeature(request.Context(), *author, input.Column, input.Feedback)
	}
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
