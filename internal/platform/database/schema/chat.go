// Copyright (c) 2026 Bloomify. All rights reserved.

package schema

// ChatCollection represents the 'chats' MongoDB collection
type ChatCollection struct {
	Name      string
	ID        string
	OwnerID   string
	Title     string
	Degree    string
	Branch    string
	Year      string
	Subject   string
	History   string
	CreatedAt string
	UpdatedAt string
}

// Chat is the schema definition for chats
var Chat = ChatCollection{
	Name:      "chats",
	ID:        "_id",
	OwnerID:   "owner_id",
	Title:     "title",
	Degree:    "degree",
	Branch:    "branch",
	Year:      "year",
	Subject:   "subject",
	History:   "history",
	CreatedAt: "created_at",
	UpdatedAt: "updated_at",
}

// PairedMessageCollection represents the 'paired_messages' MongoDB collection
type PairedMessageCollection struct {
	Name      string
	ID        string
	ChatID    string
	Input     string
	Response  string
	Mode      string
	CreatedAt string
}

// PairedMessage is the schema definition for paired_messages
var PairedMessage = PairedMessageCollection{
	Name:      "paired_messages",
	ID:        "_id",
	ChatID:    "chat_id",
	Input:     "input",
	Response:  "response",
	Mode:      "mode",
	CreatedAt: "created_at",
}
