// Copyright (c) 2026 Bloomify. All rights reserved.

package dberr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/dberr"
)

/*
TestWrap verifies the storage error classification table.
*/
func TestWrap(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"pg_no_rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), http.StatusNotFound},
		{"mongo_no_documents", mongo.ErrNoDocuments, http.StatusNotFound},
		{"unique_violation", &pgconn.PgError{Code: "23505", ConstraintName: "account_email_key"}, http.StatusConflict},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
		{"app_error_passthrough", apperr.Unauthorized("nope"), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ae := apperr.As(dberr.Wrap(tt.err, "User"))
			require.NotNil(t, ae)
			assert.Equal(t, tt.status, ae.HTTPStatus)
		})
	}

	assert.NoError(t, dberr.Wrap(nil, "User"))
}

/*
TestConstraintName extracts the violated constraint from a wrapped pg error.
*/
func TestConstraintName(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "account_username_key"})
	assert.Equal(t, "account_username_key", dberr.ConstraintName(err))
	assert.Empty(t, dberr.ConstraintName(errors.New("other")))
}
