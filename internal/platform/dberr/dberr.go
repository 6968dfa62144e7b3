// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quangdang46/learnio/internal/platform/apperr"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique-constraint failures.
const uniqueViolation = "23505"

// ErrNotFound is a standard error returned when a queried row doesn't exist.
var ErrNotFound = apperr.NotFound("Resource")

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// # Unique Violations
//
// A duplicate-key failure at insert time is translated into a Conflict: the
// unique index is the authoritative race-closer between a pre-insert
// existence check and the insert itself, so both paths must produce the same
// client-visible outcome.
func Wrap(err error, conflictMessage string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 2. Unique index violation mapping
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) && pgError.Code == uniqueViolation {
		return apperr.Conflict(conflictMessage)
	}

	// 3. Timeouts and cancellations surface as a dependency failure rather
	// than hanging or masquerading as a server bug.
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.DependencyUnavailable("Database", err)
	}

	// 4. Unknown query errors become Internal Server Errors
	return apperr.Internal(err)
}
