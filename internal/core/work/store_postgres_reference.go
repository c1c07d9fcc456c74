// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package work

import (
	"context"
	"fmt"

	"github.com/taibuivan/acervo/internal/platform/database/schema"
	"github.com/taibuivan/acervo/internal/platform/dberr"
)

// ReferenceResolver maps author and publisher names to their row ids.
//
// Resolution may write: when no row carries the exact name yet, one is
// inserted. Callers must therefore run it inside the transaction of the
// operation that needs the id, so that the new reference row is rolled back
// together with it.
type ReferenceResolver struct{}

// NewReferenceResolver constructs a stateless resolver.
func NewReferenceResolver() *ReferenceResolver {
	return &ReferenceResolver{}
}

// referenceTables is the static mapping from reference to lookup table.
var referenceTables = map[Reference]schema.ReferenceTable{
	ReferenceAuthor:    schema.Author,
	ReferencePublisher: schema.Publisher,
}

/*
ResolveOrCreate returns the id of the reference row whose name is exactly
name (case-sensitive), inserting that row first when it does not exist.

Description: A single INSERT ... ON CONFLICT statement against the unique
name constraint does both the lookup and the insert. Two transactions
resolving the same new name therefore serialize on the constraint instead of
both inserting a duplicate. The no-op DO UPDATE makes RETURNING yield the
existing id on conflict.

Parameters:
  - context: context.Context
  - db: DBTX (the open transaction)
  - ref: Reference (author or publisher)
  - name: string (stored byte-exact)

Returns:
  - int64: The existing or generated id
  - error: PERSISTENCE_ERROR, including when no id comes back from the insert
*/
func (resolver *ReferenceResolver) ResolveOrCreate(context context.Context, db DBTX, ref Reference, name string) (int64, error) {
	table, ok := referenceTables[ref]
	if !ok {
		return 0, dberr.Wrap(fmt.Errorf("no table mapped for %s", ref), "resolve_reference")
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES ($1) ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s RETURNING %s`,
		table.Table, table.Name, table.Name, table.Name, table.Name, table.ID,
	)

	var id int64
	if err := db.QueryRow(context, query, name).Scan(&id); err != nil {
		return 0, dberr.Wrap(err, "resolve_"+ref.String())
	}

	return id, nil
}
