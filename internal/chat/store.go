// Copyright (c) 2026 Bloomify. All rights reserved.

package chat

import (
	"context"

	"github.com/abhijeetsuryawanshi12/Bloomify/pkg/pagination"
)

// Repository persists chats and their messages. Every call is scoped to
// ownerID: a chat owned by someone else behaves exactly like a missing one.
// Implemented by [MongoRepository].
type Repository interface {
	Create(ctx context.Context, chat *Chat) error

	// List returns one page of the owner's chats, newest first, and the total count.
	List(ctx context.Context, ownerID string, filter ListFilter, page pagination.Params) ([]*Chat, int, error)

	FindByID(ctx context.Context, ownerID, chatID string) (*Chat, error)
	Rename(ctx context.Context, ownerID, chatID, title string) error

	// Delete removes the chat and all of its messages.
	Delete(ctx context.Context, ownerID, chatID string) error

	// AppendMessage stores message and pushes its id onto the chat history.
	AppendMessage(ctx context.Context, ownerID string, message *PairedMessage) error

	// Messages returns the messages of chatID in history order.
	Messages(ctx context.Context, chatID string) ([]PairedMessage, error)
	FindMessage(ctx context.Context, ownerID, chatID, messageID string) (*PairedMessage, error)

	ChatIDs(ctx context.Context, ownerID string) ([]string, error)
}
