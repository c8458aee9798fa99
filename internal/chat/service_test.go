// Copyright (c) 2026 Bloomify. All rights reserved.

package chat_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/chat"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/inference"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
	"github.com/abhijeetsuryawanshi12/Bloomify/pkg/pagination"
)

// # Fakes

type memoryRepository struct {
	mu       sync.Mutex
	order    []string
	chats    map[string]*chat.Chat
	messages map[string]chat.PairedMessage
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{chats: map[string]*chat.Chat{}, messages: map[string]chat.PairedMessage{}}
}

func (m *memoryRepository) owned(ownerID, chatID string) (*chat.Chat, error) {
	stored, ok := m.chats[chatID]
	if !ok || stored.OwnerID != ownerID {
		return nil, chat.ErrChatNotFound
	}
	return stored, nil
}

func (m *memoryRepository) Create(_ context.Context, c *chat.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *c
	m.chats[c.ID] = &clone
	m.order = append(m.order, c.ID)
	return nil
}

func (m *memoryRepository) List(_ context.Context, ownerID string, filter chat.ListFilter, page pagination.Params) ([]*chat.Chat, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	search := strings.ToLower(filter.Search)

	var matched []*chat.Chat
	for i := len(m.order) - 1; i >= 0; i-- {
		c, ok := m.chats[m.order[i]]
		if !ok || c.OwnerID != ownerID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Title), search) && !strings.Contains(strings.ToLower(c.Subject), search) {
			continue
		}
		clone := *c
		matched = append(matched, &clone)
	}

	start := min(page.Offset(), len(matched))
	end := min(start+page.Limit, len(matched))
	return matched[start:end], len(matched), nil
}

func (m *memoryRepository) FindByID(_ context.Context, ownerID, chatID string) (*chat.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, err := m.owned(ownerID, chatID)
	if err != nil {
		return nil, err
	}
	clone := *stored
	clone.History = append([]string(nil), stored.History...)
	return &clone, nil
}

func (m *memoryRepository) Rename(_ context.Context, ownerID, chatID, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, err := m.owned(ownerID, chatID)
	if err != nil {
		return err
	}
	stored.Title = title
	return nil
}

func (m *memoryRepository) Delete(_ context.Context, ownerID, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.owned(ownerID, chatID); err != nil {
		return err
	}
	delete(m.chats, chatID)
	for id, message := range m.messages {
		if message.ChatID == chatID {
			delete(m.messages, id)
		}
	}
	return nil
}

func (m *memoryRepository) AppendMessage(_ context.Context, ownerID string, message *chat.PairedMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, err := m.owned(ownerID, message.ChatID)
	if err != nil {
		return err
	}
	m.messages[message.ID] = *message
	stored.History = append(stored.History, message.ID)
	return nil
}

func (m *memoryRepository) Messages(_ context.Context, chatID string) ([]chat.PairedMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var messages []chat.PairedMessage
	for _, message := range m.messages {
		if message.ChatID == chatID {
			messages = append(messages, message)
		}
	}
	return messages, nil
}

func (m *memoryRepository) FindMessage(_ context.Context, ownerID, chatID, messageID string) (*chat.PairedMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.owned(ownerID, chatID); err != nil {
		return nil, err
	}
	message, ok := m.messages[messageID]
	if !ok || message.ChatID != chatID {
		return nil, chat.ErrMessageNotFound
	}
	return &message, nil
}

func (m *memoryRepository) ChatIDs(_ context.Context, ownerID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for i := len(m.order) - 1; i >= 0; i-- {
		if c, ok := m.chats[m.order[i]]; ok && c.OwnerID == ownerID {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

type fakeInferencer struct {
	routes   []string
	payloads []string
	output   string
	err      error
}

func (f *fakeInferencer) Infer(_ context.Context, route string, payload []byte) ([]byte, error) {
	f.routes = append(f.routes, route)
	f.payloads = append(f.payloads, string(payload))
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.output), nil
}

type fakeArchive struct {
	objects map[string][]byte
	err     error
}

func (a *fakeArchive) Put(_ context.Context, key, _ string, content []byte) error {
	if a.err != nil {
		return a.err
	}
	a.objects[key] = content
	return nil
}

func (a *fakeArchive) PresignedURL(_ context.Context, key, filename string, _ time.Duration) (string, error) {
	return "https://files.test/" + key + "?name=" + filename, nil
}

// # Fixture

type fixture struct {
	service    *chat.Service
	repository *memoryRepository
	model      *fakeInferencer
}

func newFixture(opts ...chat.Option) *fixture {
	f := &fixture{
		repository: newMemoryRepository(),
		model:      &fakeInferencer{output: "Remember"},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.service = chat.NewService(f.repository, f.model, logger, opts...)
	return f
}

func (f *fixture) mustCreate(t *testing.T, ownerID, subject string) *chat.Chat {
	t.Helper()
	created, err := f.service.Create(context.Background(), ownerID, chat.CreateInput{
		Degree: "BE", Branch: "IT", Year: "SE", Subject: subject,
	})
	require.NoError(t, err)
	return created
}

// # Tests

/*
TestService_Create trims input and requires every course field.
*/
func TestService_Create(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.service.Create(ctx, "u-1", chat.CreateInput{
		Title: "  Unit test prep ", Degree: "BE", Branch: "IT", Year: "SE", Subject: " DBMS ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Unit test prep", created.Title)
	assert.Equal(t, "DBMS", created.Subject)
	assert.Empty(t, created.History)
	assert.NotEmpty(t, created.ID)

	_, err = f.service.Create(ctx, "u-1", chat.CreateInput{Degree: "BE", Branch: " ", Year: "SE"})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
	assert.Len(t, ae.Details, 2)
}

/*
TestService_Submit_Suggest defaults the level, renders the transcript and appends.
*/
func TestService_Submit_Suggest(t *testing.T) {
	f := newFixture()
	f.model.output = "Explain why entropy increases in an isolated system."
	ctx := context.Background()
	created := f.mustCreate(t, "u-1", "Physics")

	message, err := f.service.Submit(ctx, "u-1", created.ID, chat.ModeSuggest,
		json.RawMessage(`{"question":"Define entropy","desired_level":""}`))
	require.NoError(t, err)

	assert.Equal(t, []string{inference.RouteSuggest}, f.model.routes)
	assert.JSONEq(t, `{"question":"Define entropy","desired_level":"Remember"}`, f.model.payloads[0])
	assert.Equal(t, "Question: Define entropy\nDesired Level: Remember\n", message.Input)
	assert.Equal(t, "Explain why entropy increases in an isolated system.", message.Response)
	assert.Equal(t, chat.ModeSuggest, message.Mode)

	detail, err := f.service.Get(ctx, "u-1", created.ID)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 1)
	assert.Equal(t, message.ID, detail.Messages[0].ID)
}

/*
TestService_Submit_HistoryOrder keeps messages in the order they were appended.
*/
func TestService_Submit_HistoryOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created := f.mustCreate(t, "u-1", "Physics")

	var ids []string
	for _, question := range []string{"first", "second", "third"} {
		message, err := f.service.Submit(ctx, "u-1", created.ID, chat.ModeClassify,
			json.RawMessage(`{"question":"`+question+`"}`))
		require.NoError(t, err)
		ids = append(ids, message.ID)
	}

	detail, err := f.service.Get(ctx, "u-1", created.ID)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 3)
	for i, message := range detail.Messages {
		assert.Equal(t, ids[i], message.ID)
	}
}

/*
TestService_Submit_NothingAppended covers every failure before and at the model call.
*/
func TestService_Submit_NothingAppended(t *testing.T) {
	tests := []struct {
		name      string
		owner     string
		mode      chat.Mode
		request   string
		modelErr  error
		wantCode  string
		wantCalls int
	}{
		{"unknown_mode", "u-1", chat.Mode("translate"), `{"question":"q"}`, nil, "VALIDATION_ERROR", 0},
		{"not_an_object", "u-1", chat.ModeClassify, `["q"]`, nil, "VALIDATION_ERROR", 0},
		{"schema_violation", "u-1", chat.ModeClassify, `{"prompt":"q"}`, nil, "VALIDATION_ERROR", 0},
		{"other_users_chat", "u-2", chat.ModeClassify, `{"question":"q"}`, nil, "NOT_FOUND", 0},
		{"model_unavailable", "u-1", chat.ModeClassify, `{"question":"q"}`, apperr.ExternalService("Inference service", errors.New("502")), "EXTERNAL_SERVICE_ERROR", 1},
		{"transport_error", "u-1", chat.ModeClassify, `{"question":"q"}`, errors.New("connection reset"), "EXTERNAL_SERVICE_ERROR", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.model.err = tt.modelErr
			ctx := context.Background()
			created := f.mustCreate(t, "u-1", "Physics")

			_, err := f.service.Submit(ctx, tt.owner, created.ID, tt.mode, json.RawMessage(tt.request))

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, tt.wantCode, ae.Code)
			assert.Len(t, f.model.routes, tt.wantCalls)

			detail, err := f.service.Get(ctx, "u-1", created.ID)
			require.NoError(t, err)
			assert.Empty(t, detail.Messages)
			assert.Empty(t, f.repository.messages)
		})
	}
}

/*
TestService_Delete removes only the named chat and its messages.
*/
func TestService_Delete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	kept := f.mustCreate(t, "u-1", "Physics")
	doomed := f.mustCreate(t, "u-1", "Chemistry")

	_, err := f.service.Submit(ctx, "u-1", doomed.ID, chat.ModeClassify, json.RawMessage(`{"question":"q"}`))
	require.NoError(t, err)
	_, err = f.service.Submit(ctx, "u-1", kept.ID, chat.ModeClassify, json.RawMessage(`{"question":"q"}`))
	require.NoError(t, err)

	assert.True(t, apperr.IsNotFound(f.service.Delete(ctx, "u-1", "no-such-chat")))
	assert.True(t, apperr.IsNotFound(f.service.Delete(ctx, "u-2", doomed.ID)))

	require.NoError(t, f.service.Delete(ctx, "u-1", doomed.ID))

	_, err = f.service.Get(ctx, "u-1", doomed.ID)
	assert.True(t, apperr.IsNotFound(err))

	detail, err := f.service.Get(ctx, "u-1", kept.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Messages, 1)
	assert.Len(t, f.repository.messages, 1)
}

/*
TestService_ListAndRename scopes listing to the owner and validates titles.
*/
func TestService_ListAndRename(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	physics := f.mustCreate(t, "u-1", "Physics")
	f.mustCreate(t, "u-1", "Chemistry")
	f.mustCreate(t, "u-2", "Physics")

	chats, meta, err := f.service.List(ctx, "u-1", chat.ListFilter{}, pagination.Params{Page: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "Chemistry", chats[0].Subject)
	assert.Equal(t, 2, meta.Total)
	assert.Equal(t, 2, meta.TotalPages)

	chats, _, err = f.service.List(ctx, "u-1", chat.ListFilter{Search: " phys "}, pagination.Params{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, physics.ID, chats[0].ID)

	_, err = f.service.Rename(ctx, "u-1", physics.ID, "   ")
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	_, err = f.service.Rename(ctx, "u-2", physics.ID, "Mine now")
	assert.True(t, apperr.IsNotFound(err))

	renamed, err := f.service.Rename(ctx, "u-1", physics.ID, " Mechanics ")
	require.NoError(t, err)
	assert.Equal(t, "Mechanics", renamed.Title)
}

/*
TestService_Export names the document after the chat and includes both sides.
*/
func TestService_Export(t *testing.T) {
	f := newFixture()
	f.model.output = "# Paper\n\nQ1. Define a set."
	ctx := context.Background()
	created := f.mustCreate(t, "u-1", "Discrete Maths")

	message, err := f.service.Submit(ctx, "u-1", created.ID, chat.ModeClassify, json.RawMessage(`{"question":"Define a set"}`))
	require.NoError(t, err)

	document, err := f.service.Export(ctx, "u-1", created.ID, message.ID)
	require.NoError(t, err)
	assert.Equal(t, "discrete-maths-classify.md", document.Filename)
	assert.Equal(t, "text/markdown; charset=utf-8", document.ContentType)
	assert.Contains(t, string(document.Content), "# Discrete Maths\n")
	assert.Contains(t, string(document.Content), "Question: Define a set\n")
	assert.Contains(t, string(document.Content), "Q1. Define a set.")

	_, err = f.service.Export(ctx, "u-1", created.ID, "missing")
	assert.True(t, apperr.IsNotFound(err))

	_, err = f.service.Export(ctx, "u-2", created.ID, message.ID)
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestService_ExportLink needs an archive and stores the document under the owner.
*/
func TestService_ExportLink(t *testing.T) {
	ctx := context.Background()

	t.Run("not_configured", func(t *testing.T) {
		f := newFixture()
		created := f.mustCreate(t, "u-1", "Physics")

		_, err := f.service.ExportLink(ctx, "u-1", created.ID, "any")
		assert.Equal(t, "SERVICE_UNAVAILABLE", apperr.As(err).Code)
	})

	t.Run("archived", func(t *testing.T) {
		archive := &fakeArchive{objects: map[string][]byte{}}
		f := newFixture(chat.WithArchive(archive, time.Minute))
		created := f.mustCreate(t, "u-1", "Physics")
		message, err := f.service.Submit(ctx, "u-1", created.ID, chat.ModeClassify, json.RawMessage(`{"question":"q"}`))
		require.NoError(t, err)

		link, err := f.service.ExportLink(ctx, "u-1", created.ID, message.ID)
		require.NoError(t, err)

		key := "exports/u-1/" + created.ID + "/" + message.ID + ".md"
		assert.Contains(t, archive.objects, key)
		assert.Equal(t, "https://files.test/"+key+"?name=physics-classify.md", link.URL)
		assert.WithinDuration(t, time.Now().Add(time.Minute), link.ExpiresAt, 5*time.Second)
	})

	t.Run("archive_failure", func(t *testing.T) {
		archive := &fakeArchive{objects: map[string][]byte{}, err: errors.New("bucket gone")}
		f := newFixture(chat.WithArchive(archive, 0))
		created := f.mustCreate(t, "u-1", "Physics")
		message, err := f.service.Submit(ctx, "u-1", created.ID, chat.ModeClassify, json.RawMessage(`{"question":"q"}`))
		require.NoError(t, err)

		_, err = f.service.ExportLink(ctx, "u-1", created.ID, message.ID)
		assert.Equal(t, "EXTERNAL_SERVICE_ERROR", apperr.As(err).Code)
	})
}
