package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
)

type NFTView struct {
	ID      string
	Name    string
	Domain  string
	OwnedBy AccountID
	Content []byte
}

type NFTFilter struct {
	Domain string
}

func (s *Store) ListNFTs(ctx context.Context, req PageRequest, filter NFTFilter) (httputil.Page[NFTView], error) {
	where := ""
	args := []interface{}{}
	if filter.Domain != "" {
		where = "WHERE domain = ?"
		args = append(args, filter.Domain)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM v_nfts `+where, args...).Scan(&total); err != nil {
		return httputil.Page[NFTView]{}, wrapStoreErr("list_nfts", err)
	}

	limit, offset := req.limitOffset()
	queryArgs := append(append([]interface{}{}, args...), limit, offset)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, domain, owned_by_signatory, owned_by_domain, content FROM v_nfts `+where+`
		ORDER BY domain ASC, name ASC LIMIT ? OFFSET ?`, queryArgs...)
	if err != nil {
		return httputil.Page[NFTView]{}, wrapStoreErr("list_nfts", err)
	}
	defer rows.Close()

	var items []NFTView
	for rows.Next() {
		var n NFTView
		var content string
		if err := rows.Scan(&n.ID, &n.Name, &n.Domain, &n.OwnedBy.Signatory, &n.OwnedBy.Domain, &content); err != nil {
			return httputil.Page[NFTView]{}, wrapStoreErr("list_nfts", err)
		}
		n.Content = []byte(content)
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return httputil.Page[NFTView]{}, wrapStoreErr("list_nfts", err)
	}

	return newPage(items, req, total), nil
}

func (s *Store) GetNFT(ctx context.Context, id NftID) (*NFTView, error) {
	var n NFTView
	var content string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, domain, owned_by_signatory, owned_by_domain, content FROM v_nfts WHERE name = ? AND domain = ?`,
		id.Name, id.Domain).Scan(&n.ID, &n.Name, &n.Domain, &n.OwnedBy.Signatory, &n.OwnedBy.Domain, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "nft", ID: id.String()}
	}
	if err != nil {
		return nil, wrapStoreErr("get_nft", err)
	}
	n.Content = []byte(content)
	return &n, nil
}
