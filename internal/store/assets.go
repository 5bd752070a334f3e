package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
)

// AssetView is the v_assets projection row: a fungible asset holding with
// its derived composite id.
type AssetView struct {
	ID               string
	DefinitionName   string
	DefinitionDomain string
	OwnedBy          AccountID
	Value            string
}

type AssetFilter struct {
	Owner AccountID // Signatory == "" means unfiltered
}

func (s *Store) ListAssets(ctx context.Context, req PageRequest, filter AssetFilter) (httputil.Page[AssetView], error) {
	where := ""
	args := []interface{}{}
	if filter.Owner.Signatory != "" {
		where = "WHERE owned_by_signatory = ? AND owned_by_domain = ?"
		args = append(args, filter.Owner.Signatory, filter.Owner.Domain)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM v_assets `+where, args...).Scan(&total); err != nil {
		return httputil.Page[AssetView]{}, wrapStoreErr("list_assets", err)
	}

	limit, offset := req.limitOffset()
	queryArgs := append(append([]interface{}{}, args...), limit, offset)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, definition_name, definition_domain, owned_by_signatory, owned_by_domain, value
		FROM v_assets `+where+`
		ORDER BY definition_domain ASC, definition_name ASC, owned_by_domain ASC, owned_by_signatory ASC
		LIMIT ? OFFSET ?`, queryArgs...)
	if err != nil {
		return httputil.Page[AssetView]{}, wrapStoreErr("list_assets", err)
	}
	defer rows.Close()

	var items []AssetView
	for rows.Next() {
		var a AssetView
		if err := rows.Scan(&a.ID, &a.DefinitionName, &a.DefinitionDomain, &a.OwnedBy.Signatory, &a.OwnedBy.Domain, &a.Value); err != nil {
			return httputil.Page[AssetView]{}, wrapStoreErr("list_assets", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return httputil.Page[AssetView]{}, wrapStoreErr("list_assets", err)
	}

	return newPage(items, req, total), nil
}

func (s *Store) GetAsset(ctx context.Context, id AssetID) (*AssetView, error) {
	var a AssetView
	err := s.db.QueryRowContext(ctx, `
		SELECT id, definition_name, definition_domain, owned_by_signatory, owned_by_domain, value
		FROM v_assets WHERE definition_name = ? AND definition_domain = ? AND owned_by_signatory = ? AND owned_by_domain = ?`,
		id.DefinitionName, id.DefinitionDomain, id.OwnedBy.Signatory, id.OwnedBy.Domain).
		Scan(&a.ID, &a.DefinitionName, &a.DefinitionDomain, &a.OwnedBy.Signatory, &a.OwnedBy.Domain, &a.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "asset", ID: id.String()}
	}
	if err != nil {
		return nil, wrapStoreErr("get_asset", err)
	}
	return &a, nil
}

// HoldersOfDefinition returns every account holding a nonzero balance of
// the given asset definition, ordered by owner id. Used to populate an
// asset definition's "accounts" detail field.
func (s *Store) HoldersOfDefinition(ctx context.Context, name, domain string) ([]AccountID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT owned_by_signatory, owned_by_domain FROM assets
		WHERE definition_name = ? AND definition_domain = ?
		ORDER BY owned_by_domain ASC, owned_by_signatory ASC`, name, domain)
	if err != nil {
		return nil, wrapStoreErr("holders_of_definition", err)
	}
	defer rows.Close()

	var out []AccountID
	for rows.Next() {
		var id AccountID
		if err := rows.Scan(&id.Signatory, &id.Domain); err != nil {
			return nil, wrapStoreErr("holders_of_definition", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
