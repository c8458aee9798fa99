// Copyright (c) 2026 Bloomify. All rights reserved.

/*
Package uuid generates the identifiers used for accounts, sessions, chats,
messages, flow tokens and request ids.

Values are UUIDv7, so they sort by creation time. That keeps the Postgres
primary key index append-only and lets chat history ids double as a
chronological order.
*/
package uuid

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
//
// It panics only if the OS random source is unavailable.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}
	return id.String()
}

// Valid reports whether s parses as a UUID of any version.
func Valid(s string) bool {
	return uuid.Validate(s) == nil
}
