package catalog

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mocks/mock_catalog.go -package=mocks

// Repository defines the contract every storage backend implements.
// Lookups return a nil book, not an error, when nothing matches.
// Backend faults are reported wrapped in ErrStorage.
type Repository interface {
	GetBookByID(ctx context.Context, id int64) (*Book, error)
	GetBookByTitle(ctx context.Context, title string) (*Book, error)
	// ListBooks returns every book when status is nil.
	ListBooks(ctx context.Context, status *ReadingStatus) ([]Book, error)
	InsertBook(ctx context.Context, input AddBookInput) (Book, error)
	// UpdateStatus fails with ErrNotFound when no book has the given id.
	UpdateStatus(ctx context.Context, id int64, status ReadingStatus) (Book, error)
	ListNotes(ctx context.Context, bookID int64) ([]Note, error)
	// InsertNote does not check the page bound; callers pass validated input.
	InsertNote(ctx context.Context, input AddNoteInput) (Note, error)
}

// MetadataClient is the external book metadata service.
type MetadataClient interface {
	FetchByID(ctx context.Context, externalID string) (Volume, error)
	Search(ctx context.Context, query string) ([]SearchResult, error)
}
