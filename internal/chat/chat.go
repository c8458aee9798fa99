// Copyright (c) 2026 Bloomify. All rights reserved.

/*
Package chat stores a user's chats with the model service and runs each
exchange.

A chat is scoped to one course (degree, branch, year, subject) and keeps an
ordered history of paired messages. Every submission is validated against the
JSON Schema of its mode, rendered into a readable transcript, forwarded to the
inference service and, only if that call succeeds, appended to the history.
*/
package chat

import (
	"time"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
)

var (
	// ErrChatNotFound is returned for missing chats and chats owned by someone else.
	ErrChatNotFound = apperr.NotFound("Chat")
	// ErrMessageNotFound is returned when a chat has no message with the given id.
	ErrMessageNotFound = apperr.NotFound("Message")
)

// Mode selects what the model does with a request.
type Mode string

const (
	ModeClassify Mode = "classify"
	ModeSuggest  Mode = "suggest"
	ModeGenerate Mode = "generate"
)

// Modes lists every accepted mode.
var Modes = []string{string(ModeClassify), string(ModeSuggest), string(ModeGenerate)}

// DefaultDesiredLevel is used for suggestions that name no target level.
const DefaultDesiredLevel = "Remember"

// Chat is a conversation owned by one user.
type Chat struct {
	ID        string    `json:"id"         bson:"_id"`
	OwnerID   string    `json:"-"          bson:"owner_id"`
	Title     string    `json:"title"      bson:"title,omitempty"`
	Degree    string    `json:"degree"     bson:"degree"`
	Branch    string    `json:"branch"     bson:"branch"`
	Year      string    `json:"year"       bson:"year"`
	Subject   string    `json:"subject"    bson:"subject"`
	History   []string  `json:"-"          bson:"history"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// PairedMessage is one request and the model's answer.
type PairedMessage struct {
	ID        string    `json:"id"         bson:"_id"`
	ChatID    string    `json:"chat_id"    bson:"chat_id"`
	Input     string    `json:"input"      bson:"input"`
	Response  string    `json:"response"   bson:"response"`
	Mode      Mode      `json:"mode"       bson:"mode"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Detail is a chat with its history in order.
type Detail struct {
	Chat
	Messages []PairedMessage `json:"messages"`
}

// ListFilter narrows a chat listing.
type ListFilter struct {
	// Search matches a substring of the title or subject, case-insensitively.
	Search string
}

// Field identifiers used in validation errors.
const (
	FieldTitle     = "title"
	FieldDegree    = "degree"
	FieldBranch    = "branch"
	FieldYear      = "year"
	FieldSubject   = "subject"
	FieldMode      = "mode"
	FieldRequest   = "request"
	FieldMessageID = "message_id"

	MaxTitleLength  = 120
	MaxCourseLength = 120
)
