package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
)

type AssetDefinitionFilter struct {
	Domain string
}

func (s *Store) ListAssetDefinitions(ctx context.Context, req PageRequest, filter AssetDefinitionFilter) (httputil.Page[AssetDefinition], error) {
	where := ""
	args := []interface{}{}
	if filter.Domain != "" {
		where = "WHERE domain = ?"
		args = append(args, filter.Domain)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM asset_definitions `+where, args...).Scan(&total); err != nil {
		return httputil.Page[AssetDefinition]{}, wrapStoreErr("list_asset_definitions", err)
	}

	limit, offset := req.limitOffset()
	queryArgs := append(append([]interface{}{}, args...), limit, offset)
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, domain, owned_by_signatory, owned_by_domain, mintable, metadata FROM asset_definitions `+where+`
		ORDER BY domain ASC, name ASC LIMIT ? OFFSET ?`, queryArgs...)
	if err != nil {
		return httputil.Page[AssetDefinition]{}, wrapStoreErr("list_asset_definitions", err)
	}
	defer rows.Close()

	var items []AssetDefinition
	for rows.Next() {
		var ad AssetDefinition
		var metadata string
		if err := rows.Scan(&ad.Name, &ad.Domain, &ad.OwnedBy.Signatory, &ad.OwnedBy.Domain, &ad.Mintable, &metadata); err != nil {
			return httputil.Page[AssetDefinition]{}, wrapStoreErr("list_asset_definitions", err)
		}
		ad.Metadata = []byte(metadata)
		items = append(items, ad)
	}
	if err := rows.Err(); err != nil {
		return httputil.Page[AssetDefinition]{}, wrapStoreErr("list_asset_definitions", err)
	}

	return newPage(items, req, total), nil
}

func (s *Store) GetAssetDefinition(ctx context.Context, name, domain string) (*AssetDefinition, error) {
	var ad AssetDefinition
	var metadata string
	err := s.db.QueryRowContext(ctx, `
		SELECT name, domain, owned_by_signatory, owned_by_domain, mintable, metadata
		FROM asset_definitions WHERE name = ? AND domain = ?`, name, domain).
		Scan(&ad.Name, &ad.Domain, &ad.OwnedBy.Signatory, &ad.OwnedBy.Domain, &ad.Mintable, &metadata)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "asset_definition", ID: name + "#" + domain}
	}
	if err != nil {
		return nil, wrapStoreErr("get_asset_definition", err)
	}
	ad.Metadata = []byte(metadata)
	return &ad, nil
}
