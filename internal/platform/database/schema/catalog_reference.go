package schema

// ReferenceTable represents a deduplicated name lookup table ('authors', 'publishers')
type ReferenceTable struct {
	Table string
	ID    string
	Name  string
}

// Author is the schema definition for authors
var Author = ReferenceTable{
	Table: "authors",
	ID:    "id",
	Name:  "name",
}

// Publisher is the schema definition for publishers
var Publisher = ReferenceTable{
	Table: "publishers",
	ID:    "id",
	Name:  "name",
}
