package work

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/acervo/internal/platform/apperr"
	"github.com/taibuivan/acervo/pkg/pointer"
)

var (
	sqlResolveAuthor    = regexp.QuoteMeta(`INSERT INTO authors (name) VALUES ($1) ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id`)
	sqlResolvePublisher = regexp.QuoteMeta(`INSERT INTO publishers (name) VALUES ($1) ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id`)
	sqlInsertWork       = regexp.QuoteMeta(`INSERT INTO works (title, call_number, call_number_local, edition, publication_year, publisher_id) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`)
	sqlUpdateWork       = regexp.QuoteMeta(`UPDATE works SET title = $2, call_number = $3, call_number_local = $4, edition = $5, publication_year = $6, publisher_id = $7 WHERE id = $1`)
	sqlDeleteWork       = regexp.QuoteMeta(`DELETE FROM works WHERE id = $1`)
	sqlInsertLink       = regexp.QuoteMeta(`INSERT INTO work_authors (work_id, author_id) VALUES ($1, $2)`)
	sqlDeleteLinks      = regexp.QuoteMeta(`DELETE FROM work_authors WHERE work_id = $1`)
	sqlListWorks        = regexp.QuoteMeta(`FROM works w`)
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockRepository(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewPostgresRepository(mock, quietLogger()), mock
}

func idRows(mock pgxmock.PgxPoolIface, id int64) *pgxmock.Rows {
	return mock.NewRows([]string{"id"}).AddRow(id)
}

func expectResolve(mock pgxmock.PgxPoolIface, author string, authorID int64, publisher string, publisherID int64) {
	mock.ExpectQuery(sqlResolveAuthor).WithArgs(author).WillReturnRows(idRows(mock, authorID))
	mock.ExpectQuery(sqlResolvePublisher).WithArgs(publisher).WillReturnRows(idRows(mock, publisherID))
}

func sampleBook() *Work {
	return &Work{
		Title:           "Dom Casmurro",
		PublicationYear: 1899,
		AuthorName:      "Machado de Assis",
		PublisherName:   "Garnier",
		CallNumber:      "869.3 A474d",
		Edition:         pointer.To("1"),
		Details:         BookDetails{ISBN: pointer.To("978-85-359-0277-1")},
	}
}

// # Reference resolution

func TestReferenceResolver_ResolveOrCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	resolver := NewReferenceResolver()

	// The same name resolves to the same id: the statement returns the
	// existing row on conflict instead of inserting a second one.
	mock.ExpectQuery(sqlResolveAuthor).WithArgs("Clarice Lispector").WillReturnRows(idRows(mock, 4))
	mock.ExpectQuery(sqlResolveAuthor).WithArgs("Clarice Lispector").WillReturnRows(idRows(mock, 4))

	first, err := resolver.ResolveOrCreate(context.Background(), mock, ReferenceAuthor, "Clarice Lispector")
	require.NoError(t, err)
	second, err := resolver.ResolveOrCreate(context.Background(), mock, ReferenceAuthor, "Clarice Lispector")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceResolver_NoGeneratedKey(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(sqlResolvePublisher).WithArgs("Rocco").WillReturnRows(mock.NewRows([]string{"id"}))

	_, err = NewReferenceResolver().ResolveOrCreate(context.Background(), mock, ReferencePublisher, "Rocco")

	require.Error(t, err)
	assert.True(t, apperr.IsPersistence(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// # Create

func TestPostgresRepository_Create(t *testing.T) {
	repo, mock := newMockRepository(t)
	work := sampleBook()

	mock.ExpectBegin()
	expectResolve(mock, "Machado de Assis", 7, "Garnier", 9)
	mock.ExpectQuery(sqlInsertWork).
		WithArgs("Dom Casmurro", "869.3 A474d", "869.3 A474d", pointer.To("1"), 1899, int64(9)).
		WillReturnRows(idRows(mock, 42))
	mock.ExpectExec(sqlInsertLink).WithArgs(int64(42), int64(7)).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO books (work_id, isbn) VALUES ($1, $2)`)).
		WithArgs(int64(42), pointer.To("978-85-359-0277-1")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	id, err := repo.Create(context.Background(), work)

	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	require.NotNil(t, work.ID)
	assert.Equal(t, int64(42), *work.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Create_MagazineNormalizesBlanks(t *testing.T) {
	repo, mock := newMockRepository(t)
	work := &Work{
		Title:           "Revista do Brasil",
		PublicationYear: 1916,
		AuthorName:      "Monteiro Lobato",
		PublisherName:   "Olegário Ribeiro",
		CallNumber:      "050 R454",
		Edition:         pointer.To("12"),
		Details:         MagazineDetails{Volume: pointer.To("   "), IssueNumber: pointer.To("12")},
	}

	mock.ExpectBegin()
	expectResolve(mock, "Monteiro Lobato", 1, "Olegário Ribeiro", 2)
	mock.ExpectQuery(sqlInsertWork).
		WithArgs("Revista do Brasil", "050 R454", "050 R454", pointer.To("12"), 1916, int64(2)).
		WillReturnRows(idRows(mock, 3))
	mock.ExpectExec(sqlInsertLink).WithArgs(int64(3), int64(1)).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO magazines (work_id, issn, volume, issue_number) VALUES ($1, $2, $3, $4)`)).
		WithArgs(int64(3), "", (*string)(nil), pointer.To("12")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	_, err := repo.Create(context.Background(), work)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Create_RollsBackOnFailure(t *testing.T) {
	repo, mock := newMockRepository(t)
	work := sampleBook()
	boom := errors.New("connection reset")

	mock.ExpectBegin()
	expectResolve(mock, "Machado de Assis", 7, "Garnier", 9)
	mock.ExpectQuery(sqlInsertWork).
		WithArgs("Dom Casmurro", "869.3 A474d", "869.3 A474d", pointer.To("1"), 1899, int64(9)).
		WillReturnError(boom)
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), work)

	require.Error(t, err)
	assert.True(t, apperr.IsPersistence(err))
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, work.ID, "id is only assigned after commit")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Create_KindFailureRollsBackEverything(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	expectResolve(mock, "Machado de Assis", 7, "Garnier", 9)
	mock.ExpectQuery(sqlInsertWork).
		WithArgs("Dom Casmurro", "869.3 A474d", "869.3 A474d", pointer.To("1"), 1899, int64(9)).
		WillReturnRows(idRows(mock, 42))
	mock.ExpectExec(sqlInsertLink).WithArgs(int64(42), int64(7)).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO books (work_id, isbn) VALUES ($1, $2)`)).
		WithArgs(int64(42), pgxmock.AnyArg()).
		WillReturnError(errors.New("value too long"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), sampleBook())

	assert.True(t, apperr.IsPersistence(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Create_BeginFailure(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectBegin().WillReturnError(errors.New("pool closed"))

	_, err := repo.Create(context.Background(), sampleBook())

	assert.True(t, apperr.IsPersistence(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Create_MissingDetails(t *testing.T) {
	repo, mock := newMockRepository(t)
	work := sampleBook()
	work.Details = nil

	_, err := repo.Create(context.Background(), work)

	assert.True(t, apperr.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// # Update

func TestPostgresRepository_Update_WithoutID(t *testing.T) {
	repo, mock := newMockRepository(t)

	err := repo.Update(context.Background(), sampleBook())

	assert.True(t, apperr.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet(), "no database access before validation")
}

func expectUpdateCommon(mock pgxmock.PgxPoolIface, work *Work, authorID, publisherID int64) {
	id := *work.ID
	mock.ExpectBegin()
	expectResolve(mock, work.AuthorName, authorID, work.PublisherName, publisherID)
	mock.ExpectExec(sqlUpdateWork).
		WithArgs(id, work.Title, work.CallNumber, work.CallNumber, work.Edition, work.PublicationYear, publisherID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(sqlDeleteLinks).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(sqlInsertLink).WithArgs(id, authorID).WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func TestPostgresRepository_Update_ExistingMagazine(t *testing.T) {
	repo, mock := newMockRepository(t)
	work := &Work{
		ID:              pointer.To(int64(5)),
		Title:           "Klaxon",
		PublicationYear: 1922,
		AuthorName:      "Mário de Andrade",
		PublisherName:   "Klaxon",
		CallNumber:      "050 K63",
		Edition:         pointer.To("2"),
		Details:         MagazineDetails{ISSN: pointer.To("0000-0001"), Volume: pointer.To(""), IssueNumber: pointer.To("2")},
	}

	expectUpdateCommon(mock, work, 11, 12)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM magazines WHERE work_id = $1)`)).
		WithArgs(int64(5)).
		WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE magazines SET issn = $2, volume = $3, issue_number = $4 WHERE work_id = $1`)).
		WithArgs(int64(5), "0000-0001", (*string)(nil), pointer.To("2")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), work))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Update_MissingBookRowIsInserted(t *testing.T) {
	repo, mock := newMockRepository(t)
	work := sampleBook()
	work.ID = pointer.To(int64(8))

	expectUpdateCommon(mock, work, 1, 2)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM books WHERE work_id = $1)`)).
		WithArgs(int64(8)).
		WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO books (work_id, isbn) VALUES ($1, $2)`)).
		WithArgs(int64(8), pointer.To("978-85-359-0277-1")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), work))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Update_MissingNewspaperRowIsNotInserted(t *testing.T) {
	repo, mock := newMockRepository(t)
	work := sampleBook()
	work.ID = pointer.To(int64(9))
	work.Details = NewspaperDetails{ISSN: pointer.To("1414-5723"), IssueNumber: pointer.To("1")}

	expectUpdateCommon(mock, work, 1, 2)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM newspapers WHERE work_id = $1)`)).
		WithArgs(int64(9)).
		WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), work))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Update_ExistingOnlineBookWritesNothing(t *testing.T) {
	repo, mock := newMockRepository(t)
	work := sampleBook()
	work.ID = pointer.To(int64(10))
	work.Details = OnlineBookDetails{}

	expectUpdateCommon(mock, work, 1, 2)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM online_books WHERE work_id = $1)`)).
		WithArgs(int64(10)).
		WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), work))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Update_RollsBackOnFailure(t *testing.T) {
	repo, mock := newMockRepository(t)
	work := sampleBook()
	work.ID = pointer.To(int64(8))

	mock.ExpectBegin()
	expectResolve(mock, work.AuthorName, 1, work.PublisherName, 2)
	mock.ExpectExec(sqlUpdateWork).
		WithArgs(int64(8), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), int64(2)).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), work)

	assert.True(t, apperr.IsPersistence(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Update_UnknownIDIsNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	work := sampleBook()
	work.ID = pointer.To(int64(404))

	mock.ExpectBegin()
	expectResolve(mock, work.AuthorName, 1, work.PublisherName, 2)
	mock.ExpectExec(sqlUpdateWork).
		WithArgs(int64(404), work.Title, work.CallNumber, work.CallNumber, work.Edition, work.PublicationYear, int64(2)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), work)

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet(), "no link rows are touched for a missing work")
}

// Switching a book to a newspaper leaves the book row in place and, with no
// newspaper row yet, writes no kind row at all. Any DELETE or INSERT against
// the kind tables would be an unexpected call and fail the update.
func TestPostgresRepository_Update_BookToNewspaperKeepsBookRow(t *testing.T) {
	repo, mock := newMockRepository(t)
	work := sampleBook()
	work.ID = pointer.To(int64(21))
	work.Details = NewspaperDetails{ISSN: pointer.To("1414-5723"), IssueNumber: pointer.To("7")}

	expectUpdateCommon(mock, work, 3, 4)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM newspapers WHERE work_id = $1)`)).
		WithArgs(int64(21)).
		WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), work))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// # Delete

func expectDeleteAll(mock pgxmock.PgxPoolIface, id int64, affected int64) {
	for _, table := range []string{"books", "online_books", "magazines", "newspapers"} {
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM ` + table + ` WHERE work_id = $1`)).
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
	}
	mock.ExpectExec(sqlDeleteLinks).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", affected))
	mock.ExpectExec(sqlDeleteWork).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", affected))
}

func TestPostgresRepository_Delete(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	expectDeleteAll(mock, 42, 1)
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 42))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Delete_UnknownIDSucceeds(t *testing.T) {
	repo, mock := newMockRepository(t)

	for range 2 {
		mock.ExpectBegin()
		expectDeleteAll(mock, 404, 0)
		mock.ExpectCommit()
	}

	require.NoError(t, repo.Delete(context.Background(), 404))
	require.NoError(t, repo.Delete(context.Background(), 404))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Delete_RollsBackOnFailure(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM books WHERE work_id = $1`)).WithArgs(int64(1)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM online_books WHERE work_id = $1`)).WithArgs(int64(1)).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 1)

	assert.True(t, apperr.IsPersistence(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// # ListAll

var listColumns = []string{
	"id", "call_number", "title", "edition", "publication_year",
	"author_name", "publisher_name",
	"isbn",
	"magazine_issn", "magazine_volume", "magazine_issue",
	"newspaper_issn", "newspaper_issue",
	"kind",
}

func TestPostgresRepository_ListAll(t *testing.T) {
	repo, mock := newMockRepository(t)
	none := (*string)(nil)

	rows := mock.NewRows(listColumns).
		AddRow(int64(4), "070 J82", "Jornal do Commercio", none, 1827,
			pointer.To("Pierre Plancher"), pointer.To("Typ. Imperial"),
			none, none, none, none, pointer.To("1414-5723"), pointer.To("88"), "Newspaper").
		AddRow(int64(3), "050 R454", "Revista do Brasil", pointer.To("ignored"), 1916,
			pointer.To("Monteiro Lobato"), pointer.To("Olegário Ribeiro"),
			none, pointer.To(""), none, pointer.To("12"), none, none, "Magazine").
		AddRow(int64(2), "869.3 A474d", "Dom Casmurro", pointer.To("1"), 1899,
			pointer.To("Machado de Assis"), pointer.To("Garnier"),
			pointer.To("978-85-359-0277-1"), none, none, none, none, none, "Book").
		AddRow(int64(1), "000", "Orphan", none, 2000,
			none, none, none, none, none, none, none, none, "Unknown")

	mock.ExpectQuery(sqlListWorks).WillReturnRows(rows)

	works, err := repo.ListAll(context.Background())

	require.NoError(t, err)
	require.Len(t, works, 4)

	newspaper := works[0]
	assert.Equal(t, int64(4), *newspaper.ID)
	assert.Equal(t, KindNewspaper, newspaper.Kind())
	assert.Equal(t, pointer.To("88"), newspaper.Edition, "issue number is exposed as edition")
	assert.Equal(t, pointer.To("1414-5723"), newspaper.IdentifierCode())

	magazine := works[1]
	assert.Equal(t, KindMagazine, magazine.Kind())
	assert.Equal(t, pointer.To("12"), magazine.Edition)
	assert.Equal(t, MagazineDetails{ISSN: pointer.To(""), IssueNumber: pointer.To("12")}, magazine.Details)

	book := works[2]
	assert.Equal(t, "Dom Casmurro", book.Title)
	assert.Equal(t, "Machado de Assis", book.AuthorName)
	assert.Equal(t, "Garnier", book.PublisherName)
	assert.Equal(t, 1899, book.PublicationYear)
	assert.Equal(t, pointer.To("1"), book.Edition)
	assert.Equal(t, BookDetails{ISBN: pointer.To("978-85-359-0277-1")}, book.Details)

	orphan := works[3]
	assert.Equal(t, KindUnknown, orphan.Kind())
	assert.Empty(t, orphan.AuthorName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListAll_Empty(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(sqlListWorks).WillReturnRows(mock.NewRows(listColumns))

	works, err := repo.ListAll(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, works)
	assert.Empty(t, works)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListAll_QueryFailure(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(sqlListWorks).WillReturnError(errors.New("relation does not exist"))

	_, err := repo.ListAll(context.Background())

	assert.True(t, apperr.IsPersistence(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListQuery_Shape(t *testing.T) {
	book := strings.Index(listQuery, `WHEN b.work_id IS NOT NULL THEN 'Book'`)
	online := strings.Index(listQuery, `WHEN o.work_id IS NOT NULL THEN 'Online Book'`)
	magazine := strings.Index(listQuery, `WHEN m.work_id IS NOT NULL THEN 'Magazine'`)
	newspaper := strings.Index(listQuery, `WHEN n.work_id IS NOT NULL THEN 'Newspaper'`)

	require.True(t, book >= 0 && online >= 0 && magazine >= 0 && newspaper >= 0, listQuery)
	assert.True(t, book < online && online < magazine && magazine < newspaper, "kind priority order")

	assert.Contains(t, listQuery, `ELSE 'Unknown' END AS kind`)
	assert.Contains(t, listQuery, `LEFT JOIN work_authors wa ON w.id = wa.work_id`)
	assert.Contains(t, listQuery, `LEFT JOIN publishers p ON w.publisher_id = p.id`)
	assert.Contains(t, listQuery, `LEFT JOIN newspapers n ON w.id = n.work_id`)
	assert.True(t, strings.HasSuffix(listQuery, `ORDER BY w.id DESC`))
}
