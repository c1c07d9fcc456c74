// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package work

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/acervo/internal/platform/ctxutil"
	"github.com/taibuivan/acervo/internal/platform/database/schema"
	"github.com/taibuivan/acervo/internal/platform/dberr"
	"github.com/taibuivan/acervo/pkg/convert"
)

// kindTable describes the kind-specific table of one [Kind]: its name, its
// work key column and its payload columns, in the order produced by kindValues.
type kindTable struct {
	table   string
	workID  string
	columns []string
}

// kindTables maps every kind to its table. KindUnknown has no table.
var kindTables = [kindCount]kindTable{
	KindBook: {
		table:   schema.Book.Table,
		workID:  schema.Book.WorkID,
		columns: []string{schema.Book.ISBN},
	},
	KindOnlineBook: {
		table:  schema.OnlineBook.Table,
		workID: schema.OnlineBook.WorkID,
	},
	KindMagazine: {
		table:   schema.Magazine.Table,
		workID:  schema.Magazine.WorkID,
		columns: []string{schema.Magazine.ISSN, schema.Magazine.Volume, schema.Magazine.IssueNumber},
	},
	KindNewspaper: {
		table:   schema.Newspaper.Table,
		workID:  schema.Newspaper.WorkID,
		columns: []string{schema.Newspaper.ISSN, schema.Newspaper.IssueNumber},
	},
}

// tableFor returns the table of kind, failing for KindUnknown or out-of-range values.
func tableFor(kind Kind) (kindTable, error) {
	if kind <= KindUnknown || kind >= kindCount || kindTables[kind].table == "" {
		return kindTable{}, fmt.Errorf("work: no table for kind %q", kind)
	}
	return kindTables[kind], nil
}

// kindValues flattens details into the column values of its table.
//
// Storage rules:
//   - Book: the ISBN is stored as given (nil becomes NULL).
//   - Magazine: a blank volume or issue number becomes NULL; a missing ISSN is stored as "".
//   - Newspaper: a blank ISSN or issue number becomes NULL.
func kindValues(details Details) ([]any, error) {
	switch d := details.(type) {
	case BookDetails:
		return []any{d.ISBN}, nil
	case OnlineBookDetails:
		return nil, nil
	case MagazineDetails:
		return []any{convert.Text(d.ISSN), convert.NilIfBlank(d.Volume), convert.NilIfBlank(d.IssueNumber)}, nil
	case NewspaperDetails:
		return []any{convert.NilIfBlank(d.ISSN), convert.NilIfBlank(d.IssueNumber)}, nil
	default:
		return nil, fmt.Errorf("work: unsupported details %T", details)
	}
}

// KindStore reads and writes the kind-specific tables of a work.
type KindStore struct {
	logger *slog.Logger
}

// NewKindStore constructs a kind store.
func NewKindStore(logger *slog.Logger) *KindStore {
	return &KindStore{logger: logger}
}

/*
Insert adds the kind-specific row of a work to the table selected by details.

Parameters:
  - context: context.Context
  - db: DBTX (the open transaction)
  - workID: int64
  - details: Details (the variant selects table and payload)

Returns:
  - error: PERSISTENCE_ERROR on storage failure or unsupported details
*/
func (store *KindStore) Insert(context context.Context, db DBTX, workID int64, details Details) error {
	if details == nil {
		return dberr.Wrap(fmt.Errorf("work: missing kind details"), "insert_kind")
	}

	table, err := tableFor(details.Kind())
	if err != nil {
		return dberr.Wrap(err, "insert_kind")
	}

	values, err := kindValues(details)
	if err != nil {
		return dberr.Wrap(err, "insert_kind")
	}

	columns := append([]string{table.workID}, table.columns...)
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		table.table, strings.Join(columns, ", "), strings.Join(placeholders, ", "),
	)

	if _, err := db.Exec(context, query, append([]any{workID}, values...)...); err != nil {
		return dberr.Wrap(err, "insert_"+table.table)
	}

	return nil
}

/*
ExistsFor reports whether the table of kind already holds a row for workID.
It decides between update and insert in [KindStore.Upsert].
*/
func (store *KindStore) ExistsFor(context context.Context, db DBTX, kind Kind, workID int64) (bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return false, dberr.Wrap(err, "exists_kind")
	}

	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE %s = $1)`, table.table, table.workID)

	var exists bool
	if err := db.QueryRow(context, query, workID).Scan(&exists); err != nil {
		return false, dberr.Wrap(err, "exists_"+table.table)
	}

	return exists, nil
}

/*
Upsert updates the kind-specific row of a work, or inserts it when missing.

Description: Newspapers are the exception. When no newspaper row exists the
call writes nothing and still succeeds; this legacy behavior is kept as is
and reported with a warning. Online book rows have no payload, so an existing
one is left untouched.

Returns:
  - error: PERSISTENCE_ERROR on storage failure
*/
func (store *KindStore) Upsert(context context.Context, db DBTX, workID int64, details Details) error {
	if details == nil {
		return dberr.Wrap(fmt.Errorf("work: missing kind details"), "upsert_kind")
	}

	kind := details.Kind()
	table, err := tableFor(kind)
	if err != nil {
		return dberr.Wrap(err, "upsert_kind")
	}

	exists, err := store.ExistsFor(context, db, kind, workID)
	if err != nil {
		return err
	}

	if !exists {
		if kind == KindNewspaper {
			ctxutil.LoggerOr(context, store.logger).WarnContext(context, "newspaper_row_missing_not_inserted",
				slog.Int64("work_id", workID),
			)
			return nil
		}
		return store.Insert(context, db, workID, details)
	}

	if len(table.columns) == 0 {
		return nil
	}

	values, err := kindValues(details)
	if err != nil {
		return dberr.Wrap(err, "update_kind")
	}

	assignments := make([]string, len(table.columns))
	for i, column := range table.columns {
		assignments[i] = fmt.Sprintf("%s = $%d", column, i+2)
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $1`,
		table.table, strings.Join(assignments, ", "), table.workID,
	)

	if _, err := db.Exec(context, query, append([]any{workID}, values...)...); err != nil {
		return dberr.Wrap(err, "update_"+table.table)
	}

	return nil
}

/*
DeleteAllKinds removes the rows of workID from every kind table. Tables
without a matching row are left unchanged, so the call is idempotent.
*/
func (store *KindStore) DeleteAllKinds(context context.Context, db DBTX, workID int64) error {
	for _, kind := range Kinds() {
		table := kindTables[kind]

		query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.table, table.workID)
		if _, err := db.Exec(context, query, workID); err != nil {
			return dberr.Wrap(err, "delete_"+table.table)
		}
	}

	return nil
}

// kindColumns carries the kind-specific columns of one listing row.
type kindColumns struct {
	isbn           *string
	magazineISSN   *string
	magazineVolume *string
	magazineIssue  *string
	newspaperISSN  *string
	newspaperIssue *string
}

// readKindFields extracts the fields relevant to kind from a listing row.
// It returns nil for KindUnknown.
func readKindFields(row kindColumns, kind Kind) Details {
	switch kind {
	case KindBook:
		return BookDetails{ISBN: row.isbn}
	case KindOnlineBook:
		return OnlineBookDetails{}
	case KindMagazine:
		return MagazineDetails{ISSN: row.magazineISSN, Volume: row.magazineVolume, IssueNumber: row.magazineIssue}
	case KindNewspaper:
		return NewspaperDetails{ISSN: row.newspaperISSN, IssueNumber: row.newspaperIssue}
	default:
		return nil
	}
}
