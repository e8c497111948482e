package catalog

import (
	"context"
	"fmt"
)

// MemoryRepo is the in-memory backend. It performs no locking of its own;
// wrap it in Shared before handing it to concurrent callers.
type MemoryRepo struct {
	books  map[int64]Book
	order  []int64
	notes  []Note
	nextID int64
	noteID int64
}

// DemoBook is the row the in-memory backend is seeded with in demo mode.
func DemoBook() Book {
	return Book{
		ID:     1,
		Title:  "Collected Fictions",
		Author: "Jorge Luis Borges",
		Year:   1998,
		Pages:  565,
		Status: StatusUnread,
	}
}

// NewMemoryRepo returns a store holding seed. Seed books without an id get
// one assigned; new ids always start above the largest seeded id.
func NewMemoryRepo(seed ...Book) *MemoryRepo {
	r := &MemoryRepo{books: make(map[int64]Book)}
	for _, b := range seed {
		if b.ID > r.nextID {
			r.nextID = b.ID
		}
	}
	for _, b := range seed {
		if b.ID == 0 {
			r.nextID++
			b.ID = r.nextID
		}
		if _, dup := r.books[b.ID]; dup {
			panic(fmt.Sprintf("catalog: duplicate seed book id %d", b.ID))
		}
		r.books[b.ID] = cloneBook(b)
		r.order = append(r.order, b.ID)
	}
	return r
}

func (r *MemoryRepo) GetBookByID(_ context.Context, id int64) (*Book, error) {
	b, ok := r.books[id]
	if !ok {
		return nil, nil
	}
	out := cloneBook(b)
	return &out, nil
}

func (r *MemoryRepo) GetBookByTitle(_ context.Context, title string) (*Book, error) {
	for _, id := range r.order {
		if b := r.books[id]; b.Title == title {
			out := cloneBook(b)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepo) ListBooks(_ context.Context, status *ReadingStatus) ([]Book, error) {
	out := make([]Book, 0, len(r.order))
	for _, id := range r.order {
		b := r.books[id]
		if status != nil && b.Status != *status {
			continue
		}
		out = append(out, cloneBook(b))
	}
	return out, nil
}

func (r *MemoryRepo) InsertBook(_ context.Context, in AddBookInput) (Book, error) {
	r.nextID++
	b := Book{
		ID:       r.nextID,
		Title:    in.Title,
		Author:   in.Author,
		ImageURL: cloneString(in.ImageURL),
		Year:     in.Year,
		Pages:    in.Pages,
		Status:   StatusUnread,
	}
	if in.Status != nil {
		b.Status = *in.Status
	}
	r.books[b.ID] = b
	r.order = append(r.order, b.ID)
	return cloneBook(b), nil
}

func (r *MemoryRepo) UpdateStatus(_ context.Context, id int64, status ReadingStatus) (Book, error) {
	b, ok := r.books[id]
	if !ok {
		return Book{}, fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	b.Status = status
	r.books[id] = b
	return cloneBook(b), nil
}

func (r *MemoryRepo) ListNotes(_ context.Context, bookID int64) ([]Note, error) {
	out := make([]Note, 0)
	for _, n := range r.notes {
		if n.BookID == bookID {
			out = append(out, cloneNote(n))
		}
	}
	return out, nil
}

func (r *MemoryRepo) InsertNote(_ context.Context, in AddNoteInput) (Note, error) {
	r.noteID++
	n := Note{
		ID:     r.noteID,
		BookID: in.BookID,
		Note:   in.Note,
		Page:   cloneInt(in.Page),
	}
	r.notes = append(r.notes, n)
	return cloneNote(n), nil
}

func cloneBook(b Book) Book {
	b.ImageURL = cloneString(b.ImageURL)
	return b
}

func cloneNote(n Note) Note {
	n.Page = cloneInt(n.Page)
	return n
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
