package catalog

import (
	"context"
	"fmt"
	"log/slog"
)

// Service holds every catalog business rule. All repository access goes
// through a single Shared handle.
type Service struct {
	store    *Shared
	metadata MetadataClient
}

// NewService wraps repo in a Shared handle. metadata may be nil, in which case
// imports and searches fail with ErrExternalLookupFailed.
func NewService(repo Repository, metadata MetadataClient) *Service {
	return &Service{store: NewShared(repo), metadata: metadata}
}

// AddBook validates the page count and status, then inserts the book.
func (s *Service) AddBook(ctx context.Context, in AddBookInput) (Book, error) {
	if in.Pages < 1 {
		return Book{}, invalidInput(ReasonPagesTooLow)
	}
	if in.Status != nil {
		if err := checkStatus(*in.Status); err != nil {
			return Book{}, err
		}
	}

	var book Book
	err := s.store.With(func(repo Repository) error {
		var err error
		book, err = repo.InsertBook(ctx, in)
		return err
	})
	if err != nil {
		return Book{}, err
	}
	slog.Info("book added", "book_id", book.ID, "title", book.Title)
	return book, nil
}

// AddBookFromExternal fetches metadata for in.GoogleBooksID, applies the
// overrides in in, validates the effective page count and inserts the result.
// The fetch runs without the catalog lock; only the insert holds it.
func (s *Service) AddBookFromExternal(ctx context.Context, in AddGoogleBookInput) (Book, error) {
	if s.metadata == nil {
		return Book{}, fmt.Errorf("%w: metadata service not configured", ErrExternalLookupFailed)
	}

	vol, err := s.metadata.FetchByID(ctx, in.GoogleBooksID)
	if err != nil {
		slog.Warn("metadata fetch failed", "external_id", in.GoogleBooksID, "error", err)
		return Book{}, fmt.Errorf("%w: %s: %w", ErrExternalLookupFailed, in.GoogleBooksID, err)
	}

	resolved, err := resolveImport(in, vol)
	if err != nil {
		return Book{}, err
	}
	return s.AddBook(ctx, resolved)
}

// GetBook looks a book up by id, or by exact title when id is nil. id wins
// when both are given. A nil book with a nil error means no match.
func (s *Service) GetBook(ctx context.Context, id *int64, title *string) (*Book, error) {
	if id == nil && title == nil {
		return nil, invalidInput(ReasonMissingSelector)
	}

	var book *Book
	err := s.store.With(func(repo Repository) error {
		var err error
		if id != nil {
			book, err = repo.GetBookByID(ctx, *id)
		} else {
			book, err = repo.GetBookByTitle(ctx, *title)
		}
		return err
	})
	return book, err
}

func (s *Service) ListBooks(ctx context.Context, status *ReadingStatus) ([]Book, error) {
	if status != nil {
		if err := checkStatus(*status); err != nil {
			return nil, err
		}
	}

	var books []Book
	err := s.store.With(func(repo Repository) error {
		var err error
		books, err = repo.ListBooks(ctx, status)
		return err
	})
	return books, err
}

// UpdateStatus propagates ErrNotFound from the backend unchanged.
func (s *Service) UpdateStatus(ctx context.Context, bookID int64, status ReadingStatus) (Book, error) {
	if err := checkStatus(status); err != nil {
		return Book{}, err
	}

	var book Book
	err := s.store.With(func(repo Repository) error {
		var err error
		book, err = repo.UpdateStatus(ctx, bookID, status)
		return err
	})
	if err != nil {
		return Book{}, err
	}
	slog.Info("book status updated", "book_id", book.ID, "status", book.Status.String())
	return book, nil
}

// AddNote checks that the book exists and, when a page is given, that it lies
// within 1..book.Pages. The upper bound is checked first.
func (s *Service) AddNote(ctx context.Context, in AddNoteInput) (Note, error) {
	var note Note
	err := s.store.With(func(repo Repository) error {
		book, err := repo.GetBookByID(ctx, in.BookID)
		if err != nil {
			return err
		}
		if book == nil {
			return invalidInput(ReasonBookNotFound)
		}
		if in.Page != nil {
			if *in.Page > book.Pages {
				return invalidInput(ReasonPageTooHigh)
			}
			if *in.Page < 1 {
				return invalidInput(ReasonPageTooLow)
			}
		}

		note, err = repo.InsertNote(ctx, in)
		return err
	})
	if err != nil {
		return Note{}, err
	}
	slog.Info("note added", "note_id", note.ID, "book_id", note.BookID)
	return note, nil
}

// ListNotes does not check that the book exists.
func (s *Service) ListNotes(ctx context.Context, bookID int64) ([]Note, error) {
	var notes []Note
	err := s.store.With(func(repo Repository) error {
		var err error
		notes, err = repo.ListNotes(ctx, bookID)
		return err
	})
	return notes, err
}

// Search passes a free-text query through to the metadata service.
func (s *Service) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if s.metadata == nil {
		return nil, fmt.Errorf("%w: metadata service not configured", ErrExternalLookupFailed)
	}
	results, err := s.metadata.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", ErrExternalLookupFailed, err)
	}
	return results, nil
}

func checkStatus(status ReadingStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	return nil
}
