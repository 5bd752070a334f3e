// Package httputil provides the JSON response envelope, pagination helpers,
// and query-parameter parsing shared by the explorer's HTTP surface.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// ErrorResponse is the standard JSON error envelope returned by the API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Pagination describes where a page of results sits within the full result set.
type Pagination struct {
	PageNumber  int  `json:"page_number"`
	PageSize    int  `json:"page_size"`
	Pages       int  `json:"pages"`
	TotalItems  *int `json:"total_items,omitempty"`
}

// Page wraps a slice of items with its pagination metadata, matching the
// envelope every list endpoint returns: {"items": [...], "pagination": {...}}.
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// NewPage builds a Page from items already sliced to one page, the requested
// page/per_page, and an optional total item count (nil when the count would
// require an expensive extra query the caller chose to skip).
func NewPage[T any](items []T, page, perPage int, totalItems *int) Page[T] {
	p := Pagination{PageNumber: page, PageSize: perPage}
	if totalItems != nil {
		p.TotalItems = totalItems
		pages := *totalItems / perPage
		if *totalItems%perPage != 0 {
			pages++
		}
		if pages == 0 {
			pages = 1
		}
		p.Pages = pages
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Pagination: p}
}

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 15
	MaxPageSize       = 100
)

// ParsePagination reads page/per_page query parameters, applying the
// explorer's defaults (page=1, per_page=15) and bounds (per_page in [1,100]).
// It returns an error when the caller supplied an out-of-range value rather
// than silently clamping, so handlers can answer with 400 Bad Request.
func ParsePagination(r *http.Request) (page, perPage int, err error) {
	page = DefaultPageNumber
	perPage = DefaultPageSize

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
	}
	if raw := r.URL.Query().Get("per_page"); raw != "" {
		perPage, err = strconv.Atoi(raw)
		if err != nil || perPage < 1 || perPage > MaxPageSize {
			return 0, 0, fmt.Errorf("per_page must be between 1 and %d", MaxPageSize)
		}
	}
	return page, perPage, nil
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes the standard JSON error envelope.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "not found"
	}
	WriteError(w, http.StatusNotFound, message)
}

func InternalError(w http.ResponseWriter, message string) {
	if message == "" {
		message = "internal server error"
	}
	WriteError(w, http.StatusInternalServerError, message)
}

func ServiceUnavailable(w http.ResponseWriter, message string) {
	if message == "" {
		message = "service unavailable"
	}
	WriteError(w, http.StatusServiceUnavailable, message)
}

// DecodeJSON decodes a JSON request body into v, writing a 400 response and
// returning false on failure.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		if errors.Is(err, io.EOF) {
			BadRequest(w, "request body is required")
			return false
		}
		BadRequest(w, "invalid request body")
		return false
	}
	return true
}

// QueryInt extracts an integer query parameter with a default value.
func QueryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(val); err == nil {
		return n
	}
	return defaultVal
}

// QueryString extracts a string query parameter with a default value.
func QueryString(r *http.Request, key, defaultVal string) string {
	val := strings.TrimSpace(r.URL.Query().Get(key))
	if val == "" {
		return defaultVal
	}
	return val
}

// AllowedQueryParams checks that every key in r's query string is present in
// allowed, returning the first (lexicographically smallest) key that isn't,
// or "" when the request carries no unrecognized parameters. List endpoints
// use this to reject unknown filters with 400 rather than silently ignoring
// them.
func AllowedQueryParams(r *http.Request, allowed ...string) string {
	allow := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		allow[a] = true
	}
	var bad []string
	for key := range r.URL.Query() {
		if !allow[key] {
			bad = append(bad, key)
		}
	}
	if len(bad) == 0 {
		return ""
	}
	sort.Strings(bad)
	return bad[0]
}

// QueryBool extracts a boolean query parameter with a default value.
func QueryBool(r *http.Request, key string, defaultVal bool) bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1" || val == "yes"
}
