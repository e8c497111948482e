package catalog

// Book is a catalog entry. ID is assigned by the backend on insert.
type Book struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	Author   string        `json:"author"`
	ImageURL *string       `json:"imageUrl,omitempty"`
	Year     int           `json:"year"`
	Pages    int           `json:"pages"`
	Status   ReadingStatus `json:"status"`
}

// Note is free-form text attached to a book, optionally pinned to a page.
type Note struct {
	ID     int64  `json:"id"`
	BookID int64  `json:"bookId"`
	Note   string `json:"note"`
	Page   *int   `json:"page"`
}

// AddBookInput is the validated record handed to Repository.InsertBook.
// A nil Status means Unread.
type AddBookInput struct {
	Title    string
	Author   string
	ImageURL *string
	Year     int
	Pages    int
	Status   *ReadingStatus
}

// AddGoogleBookInput imports a book by its external volume id. Every non-nil
// field overrides the value fetched from the metadata service.
type AddGoogleBookInput struct {
	GoogleBooksID string
	Title         *string
	Author        *string
	ImageURL      *string
	Year          *int
	Pages         *int
	Status        *ReadingStatus
}

// AddNoteInput is a note to attach to an existing book. Page is optional.
type AddNoteInput struct {
	BookID int64
	Note   string
	Page   *int
}

// Volume is the metadata service's record for a single external id.
type Volume struct {
	Title         string
	Authors       []string
	PageCount     int
	PublishedDate string
	CoverURL      *string
}

// SearchResult is one hit from a free-text metadata search.
type SearchResult struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Pages    int      `json:"pages"`
	Year     int      `json:"year"`
	ImageURL *string  `json:"imageUrl,omitempty"`
}
