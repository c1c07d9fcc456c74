// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package work manages the catalog records of library works: books, online
books, magazines and newspapers.

A [Work] is stored across several tables: one common row in 'works', one
link row to its author, and exactly one kind-specific row chosen by its
[Details] variant. Authors and publishers are shared reference rows,
deduplicated by exact name.

# Components

  - [ReferenceResolver]: turns an author or publisher name into an id, creating the row when needed.
  - [KindStore]: writes and reads the kind-specific tables.
  - [PostgresRepository]: orchestrates both inside one transaction per write.
  - [Service]: enforces the catalog form contract before reaching the repository.
*/
package work

import "fmt"

// # Kind

// Kind selects which specialized table and fields apply to a [Work].
type Kind int

const (
	// KindUnknown is reported by listings for works that have no kind-specific row.
	KindUnknown Kind = iota
	KindBook
	KindOnlineBook
	KindMagazine
	KindNewspaper

	kindCount
)

// kindTags holds the display tag of every kind. The same tags are produced by
// the listing query, so they must stay in sync with listQuery.
var kindTags = [kindCount]string{
	KindUnknown:    "Unknown",
	KindBook:       "Book",
	KindOnlineBook: "Online Book",
	KindMagazine:   "Magazine",
	KindNewspaper:  "Newspaper",
}

// String returns the display tag of the kind.
func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return kindTags[KindUnknown]
	}
	return kindTags[k]
}

// MarshalText implements [encoding.TextMarshaler].
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Kinds returns the four kinds a work can be saved as, in listing priority order.
func Kinds() []Kind {
	return []Kind{KindBook, KindOnlineBook, KindMagazine, KindNewspaper}
}

// KindTags returns the display tags accepted by the catalog form.
func KindTags() []string {
	kinds := Kinds()
	tags := make([]string, len(kinds))
	for i, kind := range kinds {
		tags[i] = kind.String()
	}
	return tags
}

// kindSpellings maps alternative spellings accepted from clients.
var kindSpellings = map[string]Kind{
	"OnlineBook": KindOnlineBook,
}

// AcceptedKindTags returns every spelling [ParseKind] accepts: the display
// tags followed by their alternatives.
func AcceptedKindTags() []string {
	tags := KindTags()
	for spelling := range kindSpellings {
		tags = append(tags, spelling)
	}
	return tags
}

// ParseKind maps a display tag back to its kind. Matching is exact, except
// that "OnlineBook" is accepted for "Online Book". The "Unknown" tag is not a
// valid input and reports false.
func ParseKind(tag string) (Kind, bool) {
	for _, kind := range Kinds() {
		if kindTags[kind] == tag {
			return kind, true
		}
	}
	if kind, ok := kindSpellings[tag]; ok {
		return kind, true
	}
	return KindUnknown, false
}

// # Kind Details

// Details is the kind-specific part of a [Work]. Exactly one implementation
// exists per kind; the set is closed to this package.
type Details interface {
	Kind() Kind
	isDetails()
}

// BookDetails holds the fields of the 'books' table.
type BookDetails struct {
	ISBN *string
}

// OnlineBookDetails has no fields of its own; the row only marks the kind.
type OnlineBookDetails struct{}

// MagazineDetails holds the fields of the 'magazines' table.
type MagazineDetails struct {
	ISSN        *string
	Volume      *string
	IssueNumber *string
}

// NewspaperDetails holds the fields of the 'newspapers' table.
type NewspaperDetails struct {
	ISSN        *string
	IssueNumber *string
}

func (BookDetails) Kind() Kind       { return KindBook }
func (OnlineBookDetails) Kind() Kind { return KindOnlineBook }
func (MagazineDetails) Kind() Kind   { return KindMagazine }
func (NewspaperDetails) Kind() Kind  { return KindNewspaper }

func (BookDetails) isDetails()       {}
func (OnlineBookDetails) isDetails() {}
func (MagazineDetails) isDetails()   {}
func (NewspaperDetails) isDetails()  {}

// # Work

// Work is the central catalog entity.
//
// ID is nil until the work has been created. CallNumber is persisted twice
// (call_number and call_number_local) and both columns always hold the same
// value. For magazines and newspapers Edition mirrors the issue number.
type Work struct {
	ID              *int64
	Title           string
	PublicationYear int
	AuthorName      string
	PublisherName   string
	CallNumber      string
	Edition         *string
	Details         Details
}

// Kind returns the kind selected by the work's details.
func (w *Work) Kind() Kind {
	if w.Details == nil {
		return KindUnknown
	}
	return w.Details.Kind()
}

// IdentifierCode returns the ISBN of a book or the ISSN of a magazine or
// newspaper. Online books carry no identifier.
func (w *Work) IdentifierCode() *string {
	switch details := w.Details.(type) {
	case BookDetails:
		return details.ISBN
	case MagazineDetails:
		return details.ISSN
	case NewspaperDetails:
		return details.ISSN
	default:
		return nil
	}
}

// # Reference Entities

// Reference identifies one of the deduplicated lookup tables.
type Reference int

const (
	ReferenceAuthor Reference = iota
	ReferencePublisher
)

// String returns the lower-case reference name used in log and error actions.
func (r Reference) String() string {
	switch r {
	case ReferenceAuthor:
		return "author"
	case ReferencePublisher:
		return "publisher"
	default:
		return fmt.Sprintf("reference(%d)", int(r))
	}
}

// # Form Contract

// Form is the raw input collected by a catalog form, before validation.
//
// Every value is text, exactly as typed. [Service] validates it and turns it
// into a [Work]; the repository never sees a Form.
type Form struct {
	ID              string
	Title           string
	AuthorName      string
	Kind            string
	PublicationYear string
	PublisherName   string
	CallNumber      string
	Edition         string
	IdentifierCode  string
	Volume          string
}

// Field names reported in validation errors.
const (
	FieldID              = "id"
	FieldTitle           = "title"
	FieldAuthor          = "author"
	FieldKind            = "kind"
	FieldPublicationYear = "publication_year"
	FieldPublisher       = "publisher"
	FieldCallNumber      = "call_number"
	FieldEdition         = "edition"
	FieldIdentifierCode  = "identifier_code"
	FieldVolume          = "volume"
)
