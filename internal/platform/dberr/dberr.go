// Copyright (c) 2026 Bloomify. All rights reserved.

// Package dberr translates storage errors from PostgreSQL and MongoDB into
// [apperr.AppError] values so services never branch on driver types.
package dberr

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// Wrap classifies err for resource. nil stays nil.
//
//   - no rows / no documents -> 404
//   - unique violation / duplicate key -> 409
//   - anything else -> 500 with the cause kept for logging
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	if apperr.As(err) != nil {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(resource)
	}

	if IsUniqueViolation(err) {
		return apperr.Conflict(resource + " already exists").WithCause(err)
	}

	return apperr.Internal(err)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique violation or a
// MongoDB duplicate key error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return true
	}
	return mongo.IsDuplicateKeyError(err)
}

// ConstraintName returns the violated PostgreSQL constraint, or "".
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
