package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestListDomains_Pagination exercises property P6: pages = ceil(total / per_page).
func TestListDomains_Pagination(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var domains []Domain
	for i := 0; i < 7; i++ {
		domains = append(domains, Domain{Name: fmt.Sprintf("domain-%02d", i)})
	}
	require.NoError(t, s.Apply(ctx, Batch{
		Block:         Block{Height: 1, Hash: "h1", CreatedAt: time.Unix(0, 0).UTC()},
		UpsertDomains: domains,
	}))

	page, err := s.ListDomains(ctx, PageRequest{Page: 1, PerPage: 3})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	require.Equal(t, 7, *page.Pagination.TotalItems)
	require.Equal(t, 3, page.Pagination.Pages)
	require.Equal(t, "domain-00", page.Items[0].Name)

	last, err := s.ListDomains(ctx, PageRequest{Page: 3, PerPage: 3})
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	require.Equal(t, "domain-06", last.Items[0].Name)

	beyond, err := s.ListDomains(ctx, PageRequest{Page: 4, PerPage: 3})
	require.NoError(t, err)
	require.Empty(t, beyond.Items)
}

func TestListAccounts_FilterByDomain(t *testing.T) {
	s := openTestStore(t)
	seedWonderland(t, s)

	page, err := s.ListAccounts(context.Background(), PageRequest{Page: 1, PerPage: 15}, AccountFilter{Domain: "wonderland"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	empty, err := s.ListAccounts(context.Background(), PageRequest{Page: 1, PerPage: 15}, AccountFilter{Domain: "nowhere"})
	require.NoError(t, err)
	require.Empty(t, empty.Items)
}
