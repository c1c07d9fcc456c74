// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package work

import (
	stdctx "context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/acervo/internal/platform/apperr"
	"github.com/taibuivan/acervo/internal/platform/ctxutil"
	"github.com/taibuivan/acervo/internal/platform/database/schema"
	"github.com/taibuivan/acervo/internal/platform/dberr"
)

// # PostgreSQL Repository

// PostgresRepository implements [Repository] on top of a [ConnectionProvider].
type PostgresRepository struct {
	provider ConnectionProvider
	resolver *ReferenceResolver
	kinds    *KindStore
	logger   *slog.Logger
}

// NewPostgresRepository constructs the catalog repository around an explicit
// connection provider (usually the application's *pgxpool.Pool).
func NewPostgresRepository(provider ConnectionProvider, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{
		provider: provider,
		resolver: NewReferenceResolver(),
		kinds:    NewKindStore(logger),
		logger:   logger,
	}
}

var (
	insertWorkQuery = fmt.Sprintf(
		`INSERT INTO %s (%s, %s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5, $6) RETURNING %s`,
		schema.Work.Table, schema.Work.Title, schema.Work.CallNumber, schema.Work.CallNumberLocal,
		schema.Work.Edition, schema.Work.PublicationYear, schema.Work.PublisherID, schema.Work.ID,
	)

	updateWorkQuery = fmt.Sprintf(
		`UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7 WHERE %s = $1`,
		schema.Work.Table, schema.Work.Title, schema.Work.CallNumber, schema.Work.CallNumberLocal,
		schema.Work.Edition, schema.Work.PublicationYear, schema.Work.PublisherID, schema.Work.ID,
	)

	deleteWorkQuery = fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Work.Table, schema.Work.ID)

	insertLinkQuery = fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2)`,
		schema.WorkAuthor.Table, schema.WorkAuthor.WorkID, schema.WorkAuthor.AuthorID,
	)

	deleteLinksQuery = fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.WorkAuthor.Table, schema.WorkAuthor.WorkID)
)

// kindAliases names the joined kind tables in listQuery.
var kindAliases = [kindCount]string{
	KindBook:       "b",
	KindOnlineBook: "o",
	KindMagazine:   "m",
	KindNewspaper:  "n",
}

// listQuery projects one row per work. The kind column is the tag of the first
// kind table, in [Kinds] order, that holds a row for the work.
var listQuery = buildListQuery()

func buildListQuery() string {
	columns := []string{
		"w." + schema.Work.ID,
		"w." + schema.Work.CallNumber,
		"w." + schema.Work.Title,
		"w." + schema.Work.Edition,
		"w." + schema.Work.PublicationYear,
		"a." + schema.Author.Name,
		"p." + schema.Publisher.Name,
		"b." + schema.Book.ISBN,
		"m." + schema.Magazine.ISSN,
		"m." + schema.Magazine.Volume,
		"m." + schema.Magazine.IssueNumber,
		"n." + schema.Newspaper.ISSN,
		"n." + schema.Newspaper.IssueNumber,
	}

	joins := []string{
		fmt.Sprintf("LEFT JOIN %s wa ON w.%s = wa.%s", schema.WorkAuthor.Table, schema.Work.ID, schema.WorkAuthor.WorkID),
		fmt.Sprintf("LEFT JOIN %s a ON wa.%s = a.%s", schema.Author.Table, schema.WorkAuthor.AuthorID, schema.Author.ID),
		fmt.Sprintf("LEFT JOIN %s p ON w.%s = p.%s", schema.Publisher.Table, schema.Work.PublisherID, schema.Publisher.ID),
	}

	cases := make([]string, 0, len(Kinds()))
	for _, kind := range Kinds() {
		table, alias := kindTables[kind], kindAliases[kind]
		joins = append(joins, fmt.Sprintf("LEFT JOIN %s %s ON w.%s = %s.%s", table.table, alias, schema.Work.ID, alias, table.workID))
		cases = append(cases, fmt.Sprintf("WHEN %s.%s IS NOT NULL THEN '%s'", alias, table.workID, kind))
	}

	columns = append(columns, fmt.Sprintf("CASE %s ELSE '%s' END AS kind", strings.Join(cases, " "), KindUnknown))

	return fmt.Sprintf("SELECT %s FROM %s w %s ORDER BY w.%s DESC",
		strings.Join(columns, ", "), schema.Work.Table, strings.Join(joins, " "), schema.Work.ID,
	)
}

// # Transaction Boundary

/*
inTransaction runs fn inside one transaction and commits it.

Description: Any error returned by fn (or a panic) triggers an immediate
rollback. Errors that are not yet classified come back as PERSISTENCE_ERROR. The rollback
runs on a context detached from cancellation, so a cancelled request still
releases its transaction. A failing rollback is logged and never replaces
the original error. pgx returns the connection to the pool on Commit and
Rollback, so no path leaves the connection checked out.
*/
func (repository *PostgresRepository) inTransaction(context stdctx.Context, action string, fn func(tx pgx.Tx) error) (err error) {
	transaction, err := repository.provider.Begin(context)
	if err != nil {
		return dberr.Wrap(err, action+"_begin")
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			repository.rollback(context, transaction, action, fmt.Errorf("panic: %v", recovered))
			panic(recovered)
		}
	}()

	if err := fn(transaction); err != nil {
		repository.rollback(context, transaction, action, err)
		return dberr.Wrap(err, action)
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, action+"_commit")
	}

	return nil
}

// rollback aborts transaction, logging (but otherwise swallowing) a failure.
func (repository *PostgresRepository) rollback(context stdctx.Context, transaction pgx.Tx, action string, cause error) {
	logger := ctxutil.LoggerOr(context, repository.logger)

	if err := transaction.Rollback(stdctx.WithoutCancel(context)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		logger.ErrorContext(context, "work_rollback_failed",
			slog.String("action", action),
			slog.Any("error", err),
			slog.Any("cause", cause),
		)
		return
	}

	logger.WarnContext(context, "work_transaction_rolled_back",
		slog.String("action", action),
		slog.String("sqlstate", dberr.SQLState(cause)),
		slog.Bool("integrity_violation", dberr.IsIntegrityViolation(cause)),
		slog.Any("cause", cause),
	)
}

// # Write Operations

/*
Create persists a new work and returns its generated id.

Description: Inside one transaction it resolves the author and publisher,
inserts the common row (call number written to both columns), links the
author and inserts the kind-specific row. work.ID is only assigned once the
commit succeeded.

Parameters:
  - context: context.Context
  - work: *Work (Details must be set)

Returns:
  - int64: The generated work id
  - error: VALIDATION_ERROR for a nil work or missing details, PERSISTENCE_ERROR otherwise
*/
func (repository *PostgresRepository) Create(context stdctx.Context, work *Work) (int64, error) {
	if work == nil || work.Details == nil {
		return 0, apperr.ValidationError("Validation failed", apperr.FieldError{Field: FieldKind, Message: "Work kind is required"})
	}

	var workID int64
	err := repository.inTransaction(context, "create_work", func(transaction pgx.Tx) error {
		authorID, publisherID, err := repository.resolveReferences(context, transaction, work)
		if err != nil {
			return err
		}

		if err := transaction.QueryRow(context, insertWorkQuery,
			work.Title,
			work.CallNumber,
			work.CallNumber,
			work.Edition,
			work.PublicationYear,
			publisherID,
		).Scan(&workID); err != nil {
			return dberr.Wrap(err, "insert_work")
		}

		if _, err := transaction.Exec(context, insertLinkQuery, workID, authorID); err != nil {
			return dberr.Wrap(err, "insert_work_author")
		}

		return repository.kinds.Insert(context, transaction, workID, work.Details)
	})
	if err != nil {
		return 0, err
	}

	work.ID = &workID

	ctxutil.LoggerOr(context, repository.logger).InfoContext(context, "work_created",
		slog.Int64("work_id", workID),
		slog.String("kind", work.Kind().String()),
	)
	return workID, nil
}

/*
Update rewrites an existing work.

Description: References are resolved again since names may have changed. The
author link is deleted and re-inserted, which always leaves exactly one
author per work. The kind-specific row is upserted; a row left in the table
of a previous kind is not removed.

Returns:
  - error: VALIDATION_ERROR when work.ID is nil (no database access happens),
    NOT_FOUND when no work has that id, PERSISTENCE_ERROR otherwise
*/
func (repository *PostgresRepository) Update(context stdctx.Context, work *Work) error {
	if work == nil || work.ID == nil {
		return apperr.ValidationError("Validation failed", apperr.FieldError{Field: FieldID, Message: "Work id is required for an update"})
	}
	if work.Details == nil {
		return apperr.ValidationError("Validation failed", apperr.FieldError{Field: FieldKind, Message: "Work kind is required"})
	}

	workID := *work.ID
	err := repository.inTransaction(context, "update_work", func(transaction pgx.Tx) error {
		authorID, publisherID, err := repository.resolveReferences(context, transaction, work)
		if err != nil {
			return err
		}

		tag, err := transaction.Exec(context, updateWorkQuery,
			workID,
			work.Title,
			work.CallNumber,
			work.CallNumber,
			work.Edition,
			work.PublicationYear,
			publisherID,
		)
		if err != nil {
			return dberr.Wrap(err, "update_work")
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("Work")
		}

		if _, err := transaction.Exec(context, deleteLinksQuery, workID); err != nil {
			return dberr.Wrap(err, "delete_work_authors")
		}

		if _, err := transaction.Exec(context, insertLinkQuery, workID, authorID); err != nil {
			return dberr.Wrap(err, "insert_work_author")
		}

		return repository.kinds.Upsert(context, transaction, workID, work.Details)
	})
	if err != nil {
		return err
	}

	ctxutil.LoggerOr(context, repository.logger).InfoContext(context, "work_updated",
		slog.Int64("work_id", workID),
		slog.String("kind", work.Kind().String()),
	)
	return nil
}

// Delete removes the kind-specific rows, the author links and the common row
// of id, in that order. Unknown ids affect no rows and succeed.
func (repository *PostgresRepository) Delete(context stdctx.Context, id int64) error {
	err := repository.inTransaction(context, "delete_work", func(transaction pgx.Tx) error {
		if err := repository.kinds.DeleteAllKinds(context, transaction, id); err != nil {
			return err
		}

		if _, err := transaction.Exec(context, deleteLinksQuery, id); err != nil {
			return dberr.Wrap(err, "delete_work_authors")
		}

		if _, err := transaction.Exec(context, deleteWorkQuery, id); err != nil {
			return dberr.Wrap(err, "delete_work")
		}

		return nil
	})
	if err != nil {
		return err
	}

	ctxutil.LoggerOr(context, repository.logger).InfoContext(context, "work_deleted", slog.Int64("work_id", id))
	return nil
}

// resolveReferences resolves the author and then the publisher of work.
func (repository *PostgresRepository) resolveReferences(context stdctx.Context, db DBTX, work *Work) (authorID, publisherID int64, err error) {
	authorID, err = repository.resolver.ResolveOrCreate(context, db, ReferenceAuthor, work.AuthorName)
	if err != nil {
		return 0, 0, err
	}

	publisherID, err = repository.resolver.ResolveOrCreate(context, db, ReferencePublisher, work.PublisherName)
	if err != nil {
		return 0, 0, err
	}

	return authorID, publisherID, nil
}

// # Read Operations

/*
ListAll returns every work, newest id first.

Description: One read query, no explicit transaction. Kind-specific fields
are taken from the table matched by the derived kind column. For magazines
and newspapers the issue number is also exposed as Edition. The result is a
fresh slice on every call.
*/
func (repository *PostgresRepository) ListAll(context stdctx.Context) ([]*Work, error) {
	rows, err := repository.provider.Query(context, listQuery)
	if err != nil {
		return nil, dberr.Wrap(err, "list_works")
	}
	defer rows.Close()

	works := make([]*Work, 0)
	for rows.Next() {
		var (
			id        int64
			work      Work
			author    *string
			publisher *string
			kindTag   string
			columns   kindColumns
		)

		if err := rows.Scan(
			&id, &work.CallNumber, &work.Title, &work.Edition, &work.PublicationYear,
			&author, &publisher,
			&columns.isbn,
			&columns.magazineISSN, &columns.magazineVolume, &columns.magazineIssue,
			&columns.newspaperISSN, &columns.newspaperIssue,
			&kindTag,
		); err != nil {
			return nil, dberr.Wrap(err, "scan_work")
		}

		work.ID = &id
		if author != nil {
			work.AuthorName = *author
		}
		if publisher != nil {
			work.PublisherName = *publisher
		}

		kind, _ := ParseKind(kindTag)
		work.Details = readKindFields(columns, kind)

		switch details := work.Details.(type) {
		case MagazineDetails:
			work.Edition = details.IssueNumber
		case NewspaperDetails:
			work.Edition = details.IssueNumber
		}

		works = append(works, &work)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_works")
	}

	return works, nil
}
