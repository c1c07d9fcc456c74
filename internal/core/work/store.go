// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package work

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// # Work Data Access

// Repository defines the persistence contract for catalog works.
type Repository interface {

	/*
		Create persists a new work: its common row, its author link and its
		kind-specific row, all or nothing.

		Parameters:
		  - context: context.Context
		  - work: *Work (ID must be nil; it is set after a successful commit)

		Returns:
		  - int64: The generated work id
		  - error: PERSISTENCE_ERROR on any storage failure
	*/
	Create(context context.Context, work *Work) (int64, error)

	/*
		Update rewrites an existing work and replaces its author link.

		Returns:
		  - error: VALIDATION_ERROR if work.ID is nil, PERSISTENCE_ERROR on storage failures
	*/
	Update(context context.Context, work *Work) error

	/*
		Delete removes a work and every row that depends on it. Deleting an
		unknown id succeeds.
	*/
	Delete(context context.Context, id int64) error

	/*
		ListAll returns a snapshot of every work, most recently created first.
	*/
	ListAll(context context.Context) ([]*Work, error)
}

// # Connection Boundary

// ConnectionProvider supplies transactions for writes and plain queries for
// reads. *pgxpool.Pool satisfies it; the pool hands the underlying connection
// back as soon as the transaction commits or rolls back.
type ConnectionProvider interface {
	Begin(context context.Context) (pgx.Tx, error)
	Query(context context.Context, sql string, args ...any) (pgx.Rows, error)
}

// DBTX is the statement surface shared by pgx transactions and pools. The
// resolver and the kind store only ever receive the open transaction.
type DBTX interface {
	Exec(context context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(context context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(context context.Context, sql string, args ...any) pgx.Row
}
