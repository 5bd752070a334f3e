package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParsePagination_Defaults(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/blocks", nil)
	page, perPage, err := ParsePagination(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != DefaultPageNumber || perPage != DefaultPageSize {
		t.Errorf("got page=%d per_page=%d, want %d/%d", page, perPage, DefaultPageNumber, DefaultPageSize)
	}
}

func TestParsePagination_OutOfRange(t *testing.T) {
	cases := []string{"?per_page=0", "?per_page=101", "?page=0", "?page=-1"}
	for _, qs := range cases {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/blocks"+qs, nil)
		if _, _, err := ParsePagination(r); err == nil {
			t.Errorf("query %q: expected error, got nil", qs)
		}
	}
}

func TestNewPage_ComputesPages(t *testing.T) {
	total := 42
	p := NewPage([]int{1, 2, 3}, 2, 15, &total)
	if p.Pagination.Pages != 3 {
		t.Errorf("pages = %d, want 3", p.Pagination.Pages)
	}
	if *p.Pagination.TotalItems != 42 {
		t.Errorf("total_items = %d, want 42", *p.Pagination.TotalItems)
	}
}

func TestNewPage_NilItemsBecomesEmptySlice(t *testing.T) {
	p := NewPage[int](nil, 1, 15, nil)
	if p.Items == nil {
		t.Error("Items should never be nil so JSON encodes [] not null")
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusNotFound, "block not found")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q, want application/json", ct)
	}
}

func TestQueryBool(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?active=yes", nil)
	if !QueryBool(r, "active", false) {
		t.Error("expected true for 'yes'")
	}
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	if !QueryBool(r, "active", true) {
		t.Error("expected default true when unset")
	}
}
