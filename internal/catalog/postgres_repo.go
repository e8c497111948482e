package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookColumns = "id, title, author, image_url, year, pages, status"

const noteColumns = "id, book_id, note, page"

// PostgresRepo is the durable backend. Every operation is a single round trip
// on a pooled connection; failures are reported as ErrStorage and never retried.
type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

// NewPostgresRepo returns a repository over db. A zero timeout leaves query
// deadlines to the caller's context.
func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) GetBookByID(ctx context.Context, id int64) (*Book, error) {
	query := "SELECT " + bookColumns + " FROM books WHERE id = $1"
	return r.getBook(ctx, "get book by id", query, id)
}

func (r *PostgresRepo) GetBookByTitle(ctx context.Context, title string) (*Book, error) {
	query := "SELECT " + bookColumns + " FROM books WHERE title = $1 ORDER BY id LIMIT 1"
	return r.getBook(ctx, "get book by title", query, title)
}

func (r *PostgresRepo) getBook(ctx context.Context, op, query string, arg any) (*Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storageErr(op, err)
	}
	return &b, nil
}

func (r *PostgresRepo) ListBooks(ctx context.Context, status *ReadingStatus) ([]Book, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if status != nil {
		clauses = append(clauses, fmt.Sprintf("status = $%d", argn))
		args = append(args, status.String())
		argn++
	}

	query := fmt.Sprintf("SELECT %s FROM books WHERE %s ORDER BY id ASC",
		bookColumns, strings.Join(clauses, " AND "))

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, storageErr("list books", err)
	}
	defer rows.Close()

	out := make([]Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, storageErr("list books", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list books", err)
	}
	return out, nil
}

func (r *PostgresRepo) InsertBook(ctx context.Context, in AddBookInput) (Book, error) {
	status := StatusUnread
	if in.Status != nil {
		status = *in.Status
	}

	query := `
		INSERT INTO books (title, author, image_url, year, pages, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + bookColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query,
		in.Title, in.Author, in.ImageURL, in.Year, in.Pages, status.String(),
	))
	if err != nil {
		return Book{}, storageErr("insert book", err)
	}
	return b, nil
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id int64, status ReadingStatus) (Book, error) {
	query := "UPDATE books SET status = $2 WHERE id = $1 RETURNING " + bookColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, id, status.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, fmt.Errorf("book %d: %w", id, ErrNotFound)
		}
		return Book{}, storageErr("update status", err)
	}
	return b, nil
}

func (r *PostgresRepo) ListNotes(ctx context.Context, bookID int64) ([]Note, error) {
	query := "SELECT " + noteColumns + " FROM notes WHERE book_id = $1 ORDER BY id ASC"

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, bookID)
	if err != nil {
		return nil, storageErr("list notes", err)
	}
	defer rows.Close()

	out := make([]Note, 0)
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.BookID, &n.Note, &n.Page); err != nil {
			return nil, storageErr("list notes", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list notes", err)
	}
	return out, nil
}

func (r *PostgresRepo) InsertNote(ctx context.Context, in AddNoteInput) (Note, error) {
	query := `
		INSERT INTO notes (book_id, note, page)
		VALUES ($1, $2, $3)
		RETURNING ` + noteColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var n Note
	err := r.db.QueryRow(timeoutCtx, query, in.BookID, in.Note, in.Page).
		Scan(&n.ID, &n.BookID, &n.Note, &n.Page)
	if err != nil {
		return Note{}, storageErr("insert note", err)
	}
	return n, nil
}

// scanBook reads one books row. A status outside the closed set surfaces as
// ErrInvalidStatus rather than a storage fault.
func scanBook(row pgx.Row) (Book, error) {
	var (
		b      Book
		status string
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ImageURL, &b.Year, &b.Pages, &status); err != nil {
		return Book{}, err
	}
	parsed, err := ParseStatus(status)
	if err != nil {
		return Book{}, fmt.Errorf("book %d: %w", b.ID, err)
	}
	b.Status = parsed
	return b, nil
}

func storageErr(op string, err error) error {
	if errors.Is(err, ErrInvalidStatus) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
