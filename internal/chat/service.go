// Copyright (c) 2026 Bloomify. All rights reserved.

package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/ctxutil"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/validate"
	"github.com/abhijeetsuryawanshi12/Bloomify/pkg/pagination"
	"github.com/abhijeetsuryawanshi12/Bloomify/pkg/slug"
	"github.com/abhijeetsuryawanshi12/Bloomify/pkg/uuid"
)

// DefaultExportLinkTTL is how long an archived export link stays valid.
const DefaultExportLinkTTL = 15 * time.Minute

const markdownContentType = "text/markdown; charset=utf-8"

// Inferencer forwards a validated request to the model. Implemented by *inference.Client.
type Inferencer interface {
	Infer(ctx context.Context, route string, payload []byte) ([]byte, error)
}

// Archive stores exported documents. Implemented by *objectstore.Store.
type Archive interface {
	Put(ctx context.Context, key, contentType string, content []byte) error
	PresignedURL(ctx context.Context, key, filename string, expiry time.Duration) (string, error)
}

// CreateInput describes a new chat. Title is optional.
type CreateInput struct {
	Title   string `json:"title"`
	Degree  string `json:"degree"`
	Branch  string `json:"branch"`
	Year    string `json:"year"`
	Subject string `json:"subject"`
}

// Document is a rendered export.
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportLink points at an archived export.
type ExportLink struct {
	URL       string    `json:"url"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expires_at"`
}

// # Service Layer

// Service implements the chat use cases.
type Service struct {
	repository Repository
	inferencer Inferencer
	archive    Archive
	linkTTL    time.Duration
	logger     *slog.Logger
}

// Option configures a [Service].
type Option func(*Service)

// WithArchive enables archived exports with links valid for ttl.
func WithArchive(archive Archive, ttl time.Duration) Option {
	return func(service *Service) {
		service.archive = archive
		if ttl > 0 {
			service.linkTTL = ttl
		}
	}
}

// NewService constructs a new chat [Service].
func NewService(repository Repository, inferencer Inferencer, logger *slog.Logger, opts ...Option) *Service {
	service := &Service{
		repository: repository,
		inferencer: inferencer,
		linkTTL:    DefaultExportLinkTTL,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// # Chats

/*
Create opens a chat for one course.

Returns:
  - *Chat: the stored chat with an empty history
  - error: VALIDATION_ERROR if a course field is missing or too long
*/
func (service *Service) Create(ctx context.Context, ownerID string, input CreateInput) (*Chat, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Degree = strings.TrimSpace(input.Degree)
	input.Branch = strings.TrimSpace(input.Branch)
	input.Year = strings.TrimSpace(input.Year)
	input.Subject = strings.TrimSpace(input.Subject)

	validator := &validate.Validator{}
	validator.MaxLen(FieldTitle, input.Title, MaxTitleLength).
		Required(FieldDegree, input.Degree).MaxLen(FieldDegree, input.Degree, MaxCourseLength).
		Required(FieldBranch, input.Branch).MaxLen(FieldBranch, input.Branch, MaxCourseLength).
		Required(FieldYear, input.Year).MaxLen(FieldYear, input.Year, MaxCourseLength).
		Required(FieldSubject, input.Subject).MaxLen(FieldSubject, input.Subject, MaxCourseLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	chat := &Chat{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     input.Title,
		Degree:    input.Degree,
		Branch:    input.Branch,
		Year:      input.Year,
		Subject:   input.Subject,
		History:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := service.repository.Create(ctx, chat); err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "chat_created", slog.String("chat_id", chat.ID))
	return chat, nil
}

// List returns one page of the owner's chats, newest first.
func (service *Service) List(ctx context.Context, ownerID string, filter ListFilter, page pagination.Params) ([]*Chat, pagination.Meta, error) {
	filter.Search = strings.TrimSpace(filter.Search)

	chats, total, err := service.repository.List(ctx, ownerID, filter, page)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return chats, pagination.NewMeta(page.Page, page.Limit, total), nil
}

/*
Get returns a chat and its messages in history order.

Returns:
  - *Detail: the chat with its messages
  - error: ErrChatNotFound for missing chats and chats of other users
*/
func (service *Service) Get(ctx context.Context, ownerID, chatID string) (*Detail, error) {
	chat, err := service.repository.FindByID(ctx, ownerID, chatID)
	if err != nil {
		return nil, err
	}

	stored, err := service.repository.Messages(ctx, chat.ID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]PairedMessage, len(stored))
	for _, message := range stored {
		byID[message.ID] = message
	}

	messages := make([]PairedMessage, 0, len(chat.History))
	for _, id := range chat.History {
		if message, ok := byID[id]; ok {
			messages = append(messages, message)
		}
	}

	return &Detail{Chat: *chat, Messages: messages}, nil
}

// Rename sets a new title.
func (service *Service) Rename(ctx context.Context, ownerID, chatID, title string) (*Chat, error) {
	title = strings.TrimSpace(title)

	validator := &validate.Validator{}
	validator.Required(FieldTitle, title).MaxLen(FieldTitle, title, MaxTitleLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.repository.Rename(ctx, ownerID, chatID, title); err != nil {
		return nil, err
	}
	return service.repository.FindByID(ctx, ownerID, chatID)
}

// Delete removes a chat and its messages. Other chats are untouched.
func (service *Service) Delete(ctx context.Context, ownerID, chatID string) error {
	if err := service.repository.Delete(ctx, ownerID, chatID); err != nil {
		return err
	}

	service.logger.InfoContext(ctx, "chat_deleted", slog.String("chat_id", chatID))
	return nil
}

// # Exchange

/*
Submit runs one exchange with the model and records it.

A suggestion without a desired level asks for [DefaultDesiredLevel]. The
request is checked against its mode's schema, rendered as a transcript and
posted to the model once. Nothing is stored unless the model answers.

Returns:
  - *PairedMessage: the transcript, the raw model output and the mode
  - error: VALIDATION_ERROR, ErrChatNotFound or EXTERNAL_SERVICE_ERROR
*/
func (service *Service) Submit(ctx context.Context, ownerID, chatID string, mode Mode, request json.RawMessage) (*PairedMessage, error) {
	route, ok := modeRoutes[mode]
	if !ok {
		return nil, validate.RequiredError(FieldMode, "Must be one of: "+strings.Join(Modes, ", "))
	}

	doc, err := parseDocument(request)
	if err != nil {
		return nil, validate.RequiredError(FieldRequest, "Must be a JSON object")
	}
	if mode == ModeSuggest {
		doc = doc.withDefault("desired_level", DefaultDesiredLevel)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("chat_service_encode_failed: %w", err)
	}
	if err := validateRequest(mode, payload); err != nil {
		return nil, err
	}

	chat, err := service.repository.FindByID(ctx, ownerID, chatID)
	if err != nil {
		return nil, err
	}

	logger := ctxutil.GetLogger(ctx)

	output, err := service.inferencer.Infer(ctx, route, payload)
	if err != nil {
		logger.WarnContext(ctx, "chat_inference_failed",
			slog.String("chat_id", chat.ID),
			slog.String("mode", string(mode)),
			slog.Any("error", err),
		)
		if apperr.As(err) == nil {
			err = apperr.ExternalService("Inference service", err)
		}
		return nil, err
	}

	message := &PairedMessage{
		ID:        uuid.New(),
		ChatID:    chat.ID,
		Input:     renderTranscript(doc),
		Response:  string(output),
		Mode:      mode,
		CreatedAt: time.Now().UTC(),
	}
	if err := service.repository.AppendMessage(ctx, ownerID, message); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "chat_message_appended",
		slog.String("chat_id", chat.ID),
		slog.String("message_id", message.ID),
		slog.String("mode", string(mode)),
	)
	return message, nil
}

// # Export

/*
Export renders one message as a Markdown document named after the chat.

Returns:
  - *Document: filename, content type and body
  - error: ErrChatNotFound or ErrMessageNotFound
*/
func (service *Service) Export(ctx context.Context, ownerID, chatID, messageID string) (*Document, error) {
	chat, err := service.repository.FindByID(ctx, ownerID, chatID)
	if err != nil {
		return nil, err
	}

	message, err := service.repository.FindMessage(ctx, ownerID, chatID, messageID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(strings.Join([]string{chat.Subject, chat.Title, string(message.Mode)}, " "))
	return &Document{
		Filename:    slug.Filename(name, "bloomify-export", "md"),
		ContentType: markdownContentType,
		Content:     []byte(renderMarkdown(chat, message)),
	}, nil
}

/*
ExportLink archives the Markdown export and returns a short-lived download link.

Returns:
  - *ExportLink: presigned URL and its expiry
  - error: SERVICE_UNAVAILABLE when no archive is configured, EXTERNAL_SERVICE_ERROR if it fails
*/
func (service *Service) ExportLink(ctx context.Context, ownerID, chatID, messageID string) (*ExportLink, error) {
	if service.archive == nil {
		return nil, apperr.ServiceUnavailable("Export storage is not configured")
	}

	document, err := service.Export(ctx, ownerID, chatID, messageID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("exports/%s/%s/%s.md", ownerID, chatID, messageID)
	if err := service.archive.Put(ctx, key, document.ContentType, document.Content); err != nil {
		return nil, apperr.ExternalService("Export storage", err)
	}

	link, err := service.archive.PresignedURL(ctx, key, document.Filename, service.linkTTL)
	if err != nil {
		return nil, apperr.ExternalService("Export storage", err)
	}

	service.logger.InfoContext(ctx, "chat_export_archived", slog.String("key", key))
	return &ExportLink{
		URL:       link,
		Filename:  document.Filename,
		ExpiresAt: time.Now().UTC().Add(service.linkTTL),
	}, nil
}

func renderMarkdown(chat *Chat, message *PairedMessage) string {
	heading := chat.Title
	if heading == "" {
		heading = chat.Subject
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "# %s\n\n", heading)
	fmt.Fprintf(&builder, "%s, %s, %s, %s\n\n", chat.Degree, chat.Branch, chat.Year, chat.Subject)
	fmt.Fprintf(&builder, "## Request (%s)\n\n```text\n%s```\n\n", message.Mode, message.Input)
	fmt.Fprintf(&builder, "## Response\n\n%s\n", strings.TrimRight(message.Response, "\n"))
	return builder.String()
}
