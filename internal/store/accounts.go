package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
)

// AccountFilter narrows ListAccounts to a single domain when set.
type AccountFilter struct {
	Domain string
}

// ListAccounts returns accounts ordered by domain, then signatory.
func (s *Store) ListAccounts(ctx context.Context, req PageRequest, filter AccountFilter) (httputil.Page[Account], error) {
	where := ""
	args := []interface{}{}
	if filter.Domain != "" {
		where = "WHERE domain = ?"
		args = append(args, filter.Domain)
	}

	var total int
	countRow := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts `+where, args...)
	if err := countRow.Scan(&total); err != nil {
		return httputil.Page[Account]{}, wrapStoreErr("list_accounts", err)
	}

	limit, offset := req.limitOffset()
	queryArgs := append(append([]interface{}{}, args...), limit, offset)
	rows, err := s.db.QueryContext(ctx, `
		SELECT signatory, domain, metadata FROM accounts `+where+`
		ORDER BY domain ASC, signatory ASC LIMIT ? OFFSET ?`, queryArgs...)
	if err != nil {
		return httputil.Page[Account]{}, wrapStoreErr("list_accounts", err)
	}
	defer rows.Close()

	var items []Account
	for rows.Next() {
		var a Account
		var metadata string
		if err := rows.Scan(&a.Signatory, &a.Domain, &metadata); err != nil {
			return httputil.Page[Account]{}, wrapStoreErr("list_accounts", err)
		}
		a.Metadata = []byte(metadata)
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return httputil.Page[Account]{}, wrapStoreErr("list_accounts", err)
	}

	return newPage(items, req, total), nil
}

// GetAccount fetches a single account by id.
func (s *Store) GetAccount(ctx context.Context, id AccountID) (*Account, error) {
	var a Account
	var metadata string
	err := s.db.QueryRowContext(ctx, `SELECT signatory, domain, metadata FROM accounts WHERE signatory = ? AND domain = ?`,
		id.Signatory, id.Domain).Scan(&a.Signatory, &a.Domain, &metadata)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "account", ID: id.String()}
	}
	if err != nil {
		return nil, wrapStoreErr("get_account", err)
	}
	a.Metadata = []byte(metadata)
	return &a, nil
}
