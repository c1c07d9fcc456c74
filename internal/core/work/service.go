package work

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/taibuivan/acervo/internal/platform/constants"
	"github.com/taibuivan/acervo/internal/platform/validate"
	"github.com/taibuivan/acervo/pkg/convert"
)

// Service applies the catalog form contract before delegating to a [Repository].
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (service *Service) List(context context.Context) ([]*Work, error) {
	return service.repo.ListAll(context)
}

/*
Save validates form and persists it, creating the work when the form has no
id and updating it otherwise.

Returns:
  - *Work: The saved work, with its id set
  - error: VALIDATION_ERROR before any storage access, or the repository error
*/
func (service *Service) Save(context context.Context, form Form) (*Work, error) {
	work, err := ParseForm(form)
	if err != nil {
		service.logger.DebugContext(context, "work_form_rejected", slog.Any("error", err))
		return nil, err
	}

	if work.ID == nil {
		if _, err := service.repo.Create(context, work); err != nil {
			return nil, err
		}
		return work, nil
	}

	if err := service.repo.Update(context, work); err != nil {
		return nil, err
	}
	return work, nil
}

func (service *Service) Delete(context context.Context, id int64) error {
	if id <= 0 {
		return validate.RequiredError(FieldID, "Must be a positive integer")
	}

	return service.repo.Delete(context, id)
}

/*
ParseForm checks the form contract and builds the matching [Work].

Description: Every field is trimmed. Title, author, publisher and call number
are required, the kind must be one of the display tags and the publication
year must be an integer within the accepted range. Blank optional fields
become nil. The identifier code is the ISBN of a book or the ISSN of a
magazine or newspaper; the edition doubles as their issue number. Volume is
only kept for magazines.
*/
func ParseForm(form Form) (*Work, error) {
	var (
		title     = strings.TrimSpace(form.Title)
		author    = strings.TrimSpace(form.AuthorName)
		publisher = strings.TrimSpace(form.PublisherName)
		call      = strings.TrimSpace(form.CallNumber)
		kindTag   = strings.TrimSpace(form.Kind)
		rawID     = strings.TrimSpace(form.ID)
		year      int
		id        int64
	)

	validator := &validate.Validator{}
	validator.Required(FieldTitle, title)
	validator.Required(FieldAuthor, author)
	validator.Required(FieldKind, kindTag)
	if kindTag != "" {
		validator.OneOf(FieldKind, kindTag, AcceptedKindTags()...)
	}
	validator.IntInRange(FieldPublicationYear, form.PublicationYear, constants.MinPublicationYear, constants.MaxPublicationYear, &year)
	validator.Required(FieldPublisher, publisher)
	validator.Required(FieldCallNumber, call)

	if rawID != "" {
		parsed, err := strconv.ParseInt(rawID, 10, 64)
		validator.Custom(FieldID, err != nil || parsed <= 0, "Must be a positive integer")
		id = parsed
	}

	if err := validator.Err(); err != nil {
		return nil, err
	}

	kind, _ := ParseKind(kindTag)
	edition := convert.TextOrNil(form.Edition)
	identifier := convert.TextOrNil(form.IdentifierCode)

	work := &Work{
		Title:           title,
		PublicationYear: year,
		AuthorName:      author,
		PublisherName:   publisher,
		CallNumber:      call,
		Edition:         edition,
	}
	if rawID != "" {
		work.ID = &id
	}

	switch kind {
	case KindBook:
		work.Details = BookDetails{ISBN: identifier}
	case KindOnlineBook:
		work.Details = OnlineBookDetails{}
	case KindMagazine:
		work.Details = MagazineDetails{
			ISSN:        identifier,
			Volume:      convert.TextOrNil(form.Volume),
			IssueNumber: edition,
		}
	case KindNewspaper:
		work.Details = NewspaperDetails{ISSN: identifier, IssueNumber: edition}
	}

	return work, nil
}
