package schema

// WorkAuthorTable represents the 'work_authors' link table
type WorkAuthorTable struct {
	Table    string
	WorkID   string
	AuthorID string
}

// WorkAuthor is the schema definition for work_authors
var WorkAuthor = WorkAuthorTable{
	Table:    "work_authors",
	WorkID:   "work_id",
	AuthorID: "author_id",
}
