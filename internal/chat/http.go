// Copyright (c) 2026 Bloomify. All rights reserved.

package chat

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/request"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/respond"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/validate"
	"github.com/abhijeetsuryawanshi12/Bloomify/pkg/pagination"
)

// Handler implements the HTTP layer for chats.
//
// Every route expects the RequireAuth middleware in front of it.
type Handler struct {
	chatService *Service
}

// NewHandler constructs a new chat [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{chatService: service}
}

// Routes returns a [chi.Router] with the chat endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.createChat)
	router.Get("/", handler.listChats)

	router.Route("/{id}", func(chatRouter chi.Router) {
		chatRouter.Get("/", handler.getChat)
		chatRouter.Patch("/", handler.renameChat)
		chatRouter.Delete("/", handler.deleteChat)

		chatRouter.Post("/messages", handler.submitMessage)
		chatRouter.Get("/messages/{messageID}/export", handler.exportMessage)
		chatRouter.Post("/messages/{messageID}/export-link", handler.exportLink)
	})

	return router
}

type renameRequest struct {
	Title string `json:"title"`
}

type submitRequest struct {
	Mode    string          `json:"mode"`
	Request json.RawMessage `json:"request"`
}

/*
POST /api/v1/chats.

Request body:
  - degree, branch, year, subject: required
  - title: optional

Response:
  - 201: the new chat
  - 400: missing course fields
*/
func (handler *Handler) createChat(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	chat, err := handler.chatService.Create(request.Context(), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, chat)
}

/*
GET /api/v1/chats?search=&page=&limit=.

Response:
  - 200: the caller's chats, newest first, with pagination meta
*/
func (handler *Handler) listChats(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter := ListFilter{Search: request.URL.Query().Get("search")}
	chats, meta, err := handler.chatService.List(request.Context(), userID, filter, pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, chats, meta)
}

// GET /api/v1/chats/{id}.
func (handler *Handler) getChat(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	detail, err := handler.chatService.Get(request.Context(), userID, requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, detail)
}

// PATCH /api/v1/chats/{id}.
func (handler *Handler) renameChat(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input renameRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	chat, err := handler.chatService.Rename(request.Context(), userID, requestutil.Param(request, "id"), input.Title)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, chat)
}

/*
DELETE /api/v1/chats/{id}.

Response:
  - 204: chat and messages removed
  - 404: no such chat for the caller
*/
func (handler *Handler) deleteChat(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.chatService.Delete(request.Context(), userID, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
POST /api/v1/chats/{id}/messages.

Request body:
  - mode: classify, suggest or generate
  - request: the structured request of that mode

Response:
  - 201: the appended message
  - 400: unknown mode or a request that does not match it
  - 404: no such chat for the caller
  - 502: the model service failed; nothing was appended
*/
func (handler *Handler) submitMessage(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input submitRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.OneOf(FieldMode, input.Mode, Modes...)
	validator.Custom(FieldRequest, len(input.Request) == 0, "This field is required")
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	message, err := handler.chatService.Submit(request.Context(), userID, requestutil.Param(request, "id"), Mode(input.Mode), input.Request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, message)
}

// GET /api/v1/chats/{id}/messages/{messageID}/export.
func (handler *Handler) exportMessage(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	document, err := handler.chatService.Export(request.Context(), userID,
		requestutil.Param(request, "id"), requestutil.Param(request, "messageID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Attachment(writer, document.Filename, document.ContentType, document.Content)
}

/*
POST /api/v1/chats/{id}/messages/{messageID}/export-link.

Response:
  - 200: presigned link to the archived document
  - 503: no archive configured
*/
func (handler *Handler) exportLink(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	link, err := handler.chatService.ExportLink(request.Context(), userID,
		requestutil.Param(request, "id"), requestutil.Param(request, "messageID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, link)
}
