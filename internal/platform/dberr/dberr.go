// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/acervo/internal/platform/apperr"
)

// ErrNoGeneratedKey is the cause used when an INSERT ... RETURNING yields no row.
var ErrNoGeneratedKey = errors.New("insert returned no generated identifier")

// Wrap inspects a database error and wraps it into a PERSISTENCE_ERROR [apperr.AppError].
//
// Errors that are already classified are returned untouched, so wrapping is
// safe at every layer of a multi-step operation. A missing row on an
// INSERT ... RETURNING becomes [ErrNoGeneratedKey].
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	if apperr.IsAppError(err) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Persistence(action, errors.Join(ErrNoGeneratedKey, err))
	}

	return apperr.Persistence(action, err)
}

// SQLState returns the PostgreSQL SQLSTATE carried by err, or "" when err did
// not originate from the server.
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsIntegrityViolation reports whether err is a class 23 error
// (unique, foreign key, not-null or check constraint).
func IsIntegrityViolation(err error) bool {
	return pgerrcode.IsIntegrityConstraintViolation(SQLState(err))
}
