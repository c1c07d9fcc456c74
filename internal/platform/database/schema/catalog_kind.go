package schema

// BookTable represents the 'books' table
type BookTable struct {
	Table  string
	WorkID string
	ISBN   string
}

// Book is the schema definition for books
var Book = BookTable{
	Table:  "books",
	WorkID: "work_id",
	ISBN:   "isbn",
}

// OnlineBookTable represents the 'online_books' table
type OnlineBookTable struct {
	Table  string
	WorkID string
}

// OnlineBook is the schema definition for online_books
var OnlineBook = OnlineBookTable{
	Table:  "online_books",
	WorkID: "work_id",
}

// MagazineTable represents the 'magazines' table
type MagazineTable struct {
	Table       string
	WorkID      string
	ISSN        string
	Volume      string
	IssueNumber string
}

// Magazine is the schema definition for magazines
var Magazine = MagazineTable{
	Table:       "magazines",
	WorkID:      "work_id",
	ISSN:        "issn",
	Volume:      "volume",
	IssueNumber: "issue_number",
}

// NewspaperTable represents the 'newspapers' table
type NewspaperTable struct {
	Table       string
	WorkID      string
	ISSN        string
	IssueNumber string
}

// Newspaper is the schema definition for newspapers
var Newspaper = NewspaperTable{
	Table:       "newspapers",
	WorkID:      "work_id",
	ISSN:        "issn",
	IssueNumber: "issue_number",
}
