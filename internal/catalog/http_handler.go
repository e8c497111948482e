package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"borges/internal/httpx"
)

// HTTPHandler exposes the Service through a single endpoint. Each request
// names an operation and carries its input:
//
//	{"operation": "addNote", "input": {"bookId": 1, "note": "...", "page": 3}}
type HTTPHandler struct {
	svc *Service
	ops map[string]operation
}

type operation func(ctx context.Context, input json.RawMessage) (any, error)

func NewHTTPHandler(svc *Service) *HTTPHandler {
	h := &HTTPHandler{svc: svc}
	h.ops = map[string]operation{
		"book":             h.book,
		"books":            h.books,
		"notes":            h.notes,
		"search":           h.search,
		"addBook":          h.addBook,
		"addGoogleBook":    h.addGoogleBook,
		"updateBookStatus": h.updateBookStatus,
		"addNote":          h.addNote,
	}
	return h
}

type queryRequest struct {
	Operation string          `json:"operation" validate:"required"`
	Input     json.RawMessage `json:"input"`
}

type bookRequest struct {
	BookID *int64  `json:"bookId"`
	Title  *string `json:"title"`
}

type booksRequest struct {
	Status *ReadingStatus `json:"status"`
}

type notesRequest struct {
	BookID int64 `json:"bookId" validate:"required"`
}

type searchRequest struct {
	Query string `json:"query" validate:"required"`
}

type addBookRequest struct {
	Title    string         `json:"title" validate:"required"`
	Author   string         `json:"author"`
	ImageURL *string        `json:"imageUrl"`
	Year     int            `json:"year"`
	Pages    int            `json:"pages"`
	Status   *ReadingStatus `json:"status"`
}

type addGoogleBookRequest struct {
	GoogleBooksID string         `json:"googleBooksId" validate:"required"`
	Title         *string        `json:"title"`
	Author        *string        `json:"author"`
	ImageURL      *string        `json:"imageUrl"`
	Year          *int           `json:"year"`
	Pages         *int           `json:"pages"`
	Status        *ReadingStatus `json:"status"`
}

type updateBookStatusRequest struct {
	BookID int64          `json:"bookId" validate:"required"`
	Status *ReadingStatus `json:"status" validate:"required"`
}

type addNoteRequest struct {
	BookID int64  `json:"bookId" validate:"required"`
	Note   string `json:"note"`
	Page   *int   `json:"page"`
}

// BookWithNotes is the response of the "book" operation.
type BookWithNotes struct {
	Book
	Notes []Note `json:"notes"`
}

type BookPayload struct {
	Book    Book `json:"book"`
	Success bool `json:"success"`
}

type NotePayload struct {
	Note    Note `json:"note"`
	Success bool `json:"success"`
}

// requestError is a transport-level rejection, raised before the Service runs.
type requestError struct {
	status  int
	code    string
	message string
	details []httpx.ErrorDetail
}

func (e *requestError) Error() string {
	return e.message
}

// Query handles POST /
// @Summary Run a catalog operation
// @Tags catalog
// @Accept json
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router / [post]
func (h *HTTPHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeStrict(r.Body, &req); err != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", details)
		return
	}

	op, ok := h.ops[req.Operation]
	if !ok {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "UNKNOWN_OPERATION",
			fmt.Sprintf("Unknown operation %q", req.Operation), nil)
		return
	}

	data, err := op(r.Context(), req.Input)
	if err != nil {
		h.writeError(w, r, req.Operation, err)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, data, map[string]any{"operation": req.Operation})
}

// Operations handles GET /
func (h *HTTPHandler) Operations(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.ops))
	for name := range h.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	httpx.JSONSuccessWithRequest(r, w, map[string]any{"operations": names}, nil)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		httpx.JSONErrorWithRequest(r, w, reqErr.status, reqErr.code, reqErr.message, reqErr.details)
		return
	}

	if reason, ok := Reason(err); ok {
		httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "INVALID_INPUT", reason, nil)
		return
	}

	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONErrorWithRequest(r, w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case errors.Is(err, ErrExternalLookupFailed):
		slog.Warn("external lookup failed", "operation", op, "request_id", httpx.RequestIDFrom(r), "error", err)
		httpx.JSONErrorWithRequest(r, w, http.StatusBadGateway, "EXTERNAL_LOOKUP_FAILED", "Metadata lookup failed", nil)
	case errors.Is(err, ErrInvalidStatus):
		slog.Error("invalid status in storage", "operation", op, "request_id", httpx.RequestIDFrom(r), "error", err)
		httpx.JSONErrorWithRequest(r, w, http.StatusInternalServerError, "INVALID_STATUS", "Stored status is invalid", nil)
	default:
		slog.Error("operation failed", "operation", op, "request_id", httpx.RequestIDFrom(r), "subject", httpx.SubjectFrom(r), "error", err)
		httpx.JSONErrorWithRequest(r, w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}

func (h *HTTPHandler) book(ctx context.Context, input json.RawMessage) (any, error) {
	req, err := decodeInput[bookRequest](input)
	if err != nil {
		return nil, err
	}

	book, err := h.svc.GetBook(ctx, req.BookID, req.Title)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, nil
	}

	notes, err := h.svc.ListNotes(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	return BookWithNotes{Book: *book, Notes: notes}, nil
}

func (h *HTTPHandler) books(ctx context.Context, input json.RawMessage) (any, error) {
	req, err := decodeInput[booksRequest](input)
	if err != nil {
		return nil, err
	}
	return h.svc.ListBooks(ctx, req.Status)
}

func (h *HTTPHandler) notes(ctx context.Context, input json.RawMessage) (any, error) {
	req, err := decodeInput[notesRequest](input)
	if err != nil {
		return nil, err
	}
	return h.svc.ListNotes(ctx, req.BookID)
}

func (h *HTTPHandler) search(ctx context.Context, input json.RawMessage) (any, error) {
	req, err := decodeInput[searchRequest](input)
	if err != nil {
		return nil, err
	}
	return h.svc.Search(ctx, req.Query)
}

func (h *HTTPHandler) addBook(ctx context.Context, input json.RawMessage) (any, error) {
	req, err := decodeInput[addBookRequest](input)
	if err != nil {
		return nil, err
	}

	book, err := h.svc.AddBook(ctx, AddBookInput{
		Title:    req.Title,
		Author:   req.Author,
		ImageURL: req.ImageURL,
		Year:     req.Year,
		Pages:    req.Pages,
		Status:   req.Status,
	})
	if err != nil {
		return nil, err
	}
	return BookPayload{Book: book, Success: true}, nil
}

func (h *HTTPHandler) addGoogleBook(ctx context.Context, input json.RawMessage) (any, error) {
	req, err := decodeInput[addGoogleBookRequest](input)
	if err != nil {
		return nil, err
	}

	book, err := h.svc.AddBookFromExternal(ctx, AddGoogleBookInput{
		GoogleBooksID: req.GoogleBooksID,
		Title:         req.Title,
		Author:        req.Author,
		ImageURL:      req.ImageURL,
		Year:          req.Year,
		Pages:         req.Pages,
		Status:        req.Status,
	})
	if err != nil {
		return nil, err
	}
	return BookPayload{Book: book, Success: true}, nil
}

func (h *HTTPHandler) updateBookStatus(ctx context.Context, input json.RawMessage) (any, error) {
	req, err := decodeInput[updateBookStatusRequest](input)
	if err != nil {
		return nil, err
	}

	book, err := h.svc.UpdateStatus(ctx, req.BookID, *req.Status)
	if err != nil {
		return nil, err
	}
	return BookPayload{Book: book, Success: true}, nil
}

func (h *HTTPHandler) addNote(ctx context.Context, input json.RawMessage) (any, error) {
	req, err := decodeInput[addNoteRequest](input)
	if err != nil {
		return nil, err
	}

	note, err := h.svc.AddNote(ctx, AddNoteInput{
		BookID: req.BookID,
		Note:   req.Note,
		Page:   req.Page,
	})
	if err != nil {
		return nil, err
	}
	return NotePayload{Note: note, Success: true}, nil
}

// decodeInput decodes and validates an operation input. A missing input is
// treated as an empty object.
func decodeInput[T any](input json.RawMessage) (T, error) {
	var req T
	if len(bytes.TrimSpace(input)) == 0 || bytes.Equal(bytes.TrimSpace(input), []byte("null")) {
		input = json.RawMessage("{}")
	}

	if err := decodeStrict(bytes.NewReader(input), &req); err != nil {
		code := "BAD_REQUEST"
		if errors.Is(err, ErrInvalidStatus) {
			code = "INVALID_STATUS"
		}
		return req, &requestError{
			status:  http.StatusBadRequest,
			code:    code,
			message: "Invalid input: " + err.Error(),
		}
	}

	if details := httpx.ValidateStruct(req); details != nil {
		return req, &requestError{
			status:  http.StatusBadRequest,
			code:    "VALIDATION_ERROR",
			message: "Invalid input",
			details: details,
		}
	}
	return req, nil
}

func decodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
