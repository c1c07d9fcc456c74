package schema

// WorkTable represents the 'works' table
type WorkTable struct {
	Table           string
	ID              string
	Title           string
	CallNumber      string
	CallNumberLocal string
	Edition         string
	PublicationYear string
	PublisherID     string
}

// Work is the schema definition for works
var Work = WorkTable{
	Table:           "works",
	ID:              "id",
	Title:           "title",
	CallNumber:      "call_number",
	CallNumberLocal: "call_number_local",
	Edition:         "edition",
	PublicationYear: "publication_year",
	PublisherID:     "publisher_id",
}
