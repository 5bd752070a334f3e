package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
)

func (s *Store) ListPeers(ctx context.Context, req PageRequest) (httputil.Page[Peer], error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM peers`).Scan(&total); err != nil {
		return httputil.Page[Peer]{}, wrapStoreErr("list_peers", err)
	}

	limit, offset := req.limitOffset()
	rows, err := s.db.QueryContext(ctx, `SELECT url, public_key FROM peers ORDER BY url ASC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return httputil.Page[Peer]{}, wrapStoreErr("list_peers", err)
	}
	defer rows.Close()

	var items []Peer
	for rows.Next() {
		var p Peer
		if err := rows.Scan(&p.URL, &p.PublicKey); err != nil {
			return httputil.Page[Peer]{}, wrapStoreErr("list_peers", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return httputil.Page[Peer]{}, wrapStoreErr("list_peers", err)
	}

	return newPage(items, req, total), nil
}

func (s *Store) GetPeer(ctx context.Context, url string) (*Peer, error) {
	var p Peer
	err := s.db.QueryRowContext(ctx, `SELECT url, public_key FROM peers WHERE url = ?`, url).Scan(&p.URL, &p.PublicKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "peer", ID: url}
	}
	if err != nil {
		return nil, wrapStoreErr("get_peer", err)
	}
	return &p, nil
}
