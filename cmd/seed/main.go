package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"borges/internal/catalog"
	"borges/internal/config"
	"borges/internal/logging"
	"borges/internal/platform/googlebooks"

	"github.com/alecthomas/kong"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CLI seeds a Postgres catalog. Every row goes through catalog.Service, so
// the same validation as the API applies.
type CLI struct {
	DSN      string   `help:"Postgres DSN" env:"DB_DSN" required:""`
	File     string   `short:"f" help:"JSON file with an array of books" type:"existingfile"`
	GoogleID []string `name:"google-id" help:"Google Books volume ids to import"`
	Demo     bool     `help:"Insert the demo book"`
	APIKey   string   `help:"Google Books API key" env:"GOOGLE_API_KEY"`
	LogLevel string   `help:"Log level" env:"LOG_LEVEL" default:"info"`
}

// seedBook is one entry of the seed file.
type seedBook struct {
	Title    string                 `json:"title"`
	Author   string                 `json:"author"`
	ImageURL *string                `json:"imageUrl"`
	Year     int                    `json:"year"`
	Pages    int                    `json:"pages"`
	Status   *catalog.ReadingStatus `json:"status"`
	Notes    []seedNote             `json:"notes"`
}

type seedNote struct {
	Note string `json:"note"`
	Page *int   `json:"page"`
}

func main() {
	config.LoadEnvFiles()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("seed"),
		kong.Description("Seed the reading catalog."),
		kong.UsageOnError(),
	)
	logging.Init(os.Stdout, cli.LogLevel)

	if err := ctx.Run(); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func (c *CLI) Run() error {
	if c.File == "" && len(c.GoogleID) == 0 && !c.Demo {
		return errors.New("nothing to seed: pass --file, --google-id or --demo")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, c.DSN)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	metadata := googlebooks.NewClient(googlebooks.Config{APIKey: c.APIKey})
	defer metadata.Close()

	svc := catalog.NewService(catalog.NewPostgresRepo(pool, 0), metadata)
	return c.seed(ctx, svc)
}

func (c *CLI) seed(ctx context.Context, svc *catalog.Service) error {
	var books []seedBook
	if c.Demo {
		demo := catalog.DemoBook()
		books = append(books, seedBook{Title: demo.Title, Author: demo.Author, Year: demo.Year, Pages: demo.Pages})
	}
	if c.File != "" {
		f, err := os.Open(c.File)
		if err != nil {
			return err
		}
		defer f.Close()

		fromFile, err := readSeedFile(f)
		if err != nil {
			return fmt.Errorf("%s: %w", c.File, err)
		}
		books = append(books, fromFile...)
	}

	added, err := addBooks(ctx, svc, books)
	if err != nil {
		return err
	}

	for _, id := range c.GoogleID {
		book, err := svc.AddBookFromExternal(ctx, catalog.AddGoogleBookInput{GoogleBooksID: id})
		if err != nil {
			return fmt.Errorf("import %s: %w", id, err)
		}
		slog.Info("imported", "google_id", id, "book_id", book.ID, "title", book.Title)
		added++
	}

	slog.Info("seed complete", "books", added)
	return nil
}

func readSeedFile(r io.Reader) ([]seedBook, error) {
	var books []seedBook
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&books); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return books, nil
}

func addBooks(ctx context.Context, svc *catalog.Service, books []seedBook) (int, error) {
	for i, b := range books {
		book, err := svc.AddBook(ctx, catalog.AddBookInput{
			Title:    b.Title,
			Author:   b.Author,
			ImageURL: b.ImageURL,
			Year:     b.Year,
			Pages:    b.Pages,
			Status:   b.Status,
		})
		if err != nil {
			return i, fmt.Errorf("book %d (%q): %w", i, b.Title, err)
		}

		for _, n := range b.Notes {
			if _, err := svc.AddNote(ctx, catalog.AddNoteInput{BookID: book.ID, Note: n.Note, Page: n.Page}); err != nil {
				return i, fmt.Errorf("note for %q: %w", b.Title, err)
			}
		}
	}
	return len(books), nil
}
