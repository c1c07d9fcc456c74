// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package uuidv7 wraps google/uuid to generate time-ordered UUIDv7 values.
//
// Acervo uses them as request correlation ids: sorting log lines by request id
// then also sorts them by arrival time.
package uuidv7

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
//
// When the clock or entropy source fails, it falls back to a random UUIDv4 so
// that callers always get a usable identifier.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Valid reports whether s parses as a UUID of any version.
func Valid(s string) bool {
	return uuid.Validate(s) == nil
}
