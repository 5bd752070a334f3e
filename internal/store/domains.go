package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
)

// ListDomains returns domains ordered by name ascending.
func (s *Store) ListDomains(ctx context.Context, req PageRequest) (httputil.Page[Domain], error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM domains`).Scan(&total); err != nil {
		return httputil.Page[Domain]{}, wrapStoreErr("list_domains", err)
	}

	limit, offset := req.limitOffset()
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, logo, metadata FROM domains ORDER BY name ASC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return httputil.Page[Domain]{}, wrapStoreErr("list_domains", err)
	}
	defer rows.Close()

	var items []Domain
	for rows.Next() {
		var d Domain
		var logo sql.NullString
		var metadata string
		if err := rows.Scan(&d.Name, &logo, &metadata); err != nil {
			return httputil.Page[Domain]{}, wrapStoreErr("list_domains", err)
		}
		if logo.Valid {
			d.Logo = &logo.String
		}
		d.Metadata = []byte(metadata)
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return httputil.Page[Domain]{}, wrapStoreErr("list_domains", err)
	}

	return newPage(items, req, total), nil
}

// GetDomain fetches a single domain by name.
func (s *Store) GetDomain(ctx context.Context, name string) (*Domain, error) {
	var d Domain
	d.Name = name
	var logo sql.NullString
	var metadata string

	err := s.db.QueryRowContext(ctx, `SELECT name, logo, metadata FROM domains WHERE name = ?`, name).
		Scan(&d.Name, &logo, &metadata)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "domain", ID: name}
	}
	if err != nil {
		return nil, wrapStoreErr("get_domain", err)
	}
	if logo.Valid {
		d.Logo = &logo.String
	}
	d.Metadata = []byte(metadata)
	return &d, nil
}

// GetDomainOwner returns the account a domain has been transferred to, if
// any. A domain with no recorded Transfer(Domain) has no owner row and this
// returns (nil, nil).
func (s *Store) GetDomainOwner(ctx context.Context, name string) (*AccountID, error) {
	var id AccountID
	err := s.db.QueryRowContext(ctx, `
		SELECT account_signatory, account_domain FROM domain_owners WHERE domain = ?`, name).
		Scan(&id.Signatory, &id.Domain)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStoreErr("get_domain_owner", err)
	}
	return &id, nil
}
