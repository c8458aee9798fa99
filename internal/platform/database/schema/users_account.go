// Copyright (c) 2026 Bloomify. All rights reserved.

// Package schema names the tables, collections and columns the stores query,
// so a rename touches one file instead of every SQL string.
package schema

import "strings"

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table       string
	ID          string
	Email       string
	Password    string
	Username    string
	University  string
	IsOAuthUser string
	CreatedAt   string
	UpdatedAt   string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:       "users.account",
	ID:          "id",
	Email:       "email",
	Password:    "passwordhash",
	Username:    "username",
	University:  "university",
	IsOAuthUser: "isoauthuser",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Password, t.Username, t.University, t.IsOAuthUser, t.CreatedAt, t.UpdatedAt,
	}
}

// Select returns the comma-separated column list in [UserAccountTable.Columns] order.
func (t UserAccountTable) Select() string {
	return strings.Join(t.Columns(), ", ")
}

// UsernameUniqueConstraint is the index that keeps usernames unique.
const UsernameUniqueConstraint = "account_username_key"

// EmailUniqueConstraint is the index that keeps e-mail addresses unique.
const EmailUniqueConstraint = "account_email_key"
