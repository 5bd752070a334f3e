package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
)

// RoleView is a role's name and permissions. The accounts it has been
// granted to come from RoleGrantees.
type RoleView struct {
	Name        string
	Permissions []byte
}

func (s *Store) ListRoles(ctx context.Context, req PageRequest) (httputil.Page[RoleView], error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles`).Scan(&total); err != nil {
		return httputil.Page[RoleView]{}, wrapStoreErr("list_roles", err)
	}

	limit, offset := req.limitOffset()
	rows, err := s.db.QueryContext(ctx, `SELECT name, permissions FROM roles ORDER BY name ASC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return httputil.Page[RoleView]{}, wrapStoreErr("list_roles", err)
	}
	defer rows.Close()

	var items []RoleView
	for rows.Next() {
		var r RoleView
		var perms string
		if err := rows.Scan(&r.Name, &perms); err != nil {
			return httputil.Page[RoleView]{}, wrapStoreErr("list_roles", err)
		}
		r.Permissions = []byte(perms)
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return httputil.Page[RoleView]{}, wrapStoreErr("list_roles", err)
	}

	return newPage(items, req, total), nil
}

func (s *Store) GetRole(ctx context.Context, name string) (*RoleView, error) {
	var r RoleView
	var perms string
	err := s.db.QueryRowContext(ctx, `SELECT name, permissions FROM roles WHERE name = ?`, name).Scan(&r.Name, &perms)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "role", ID: name}
	}
	if err != nil {
		return nil, wrapStoreErr("get_role", err)
	}
	r.Permissions = []byte(perms)
	return &r, nil
}

// RoleGrantees returns the accounts a role has been granted to, ordered by id.
func (s *Store) RoleGrantees(ctx context.Context, role string) ([]AccountID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_signatory, account_domain FROM role_grants WHERE role = ?
		ORDER BY account_domain ASC, account_signatory ASC`, role)
	if err != nil {
		return nil, wrapStoreErr("role_grantees", err)
	}
	defer rows.Close()

	var out []AccountID
	for rows.Next() {
		var id AccountID
		if err := rows.Scan(&id.Signatory, &id.Domain); err != nil {
			return nil, wrapStoreErr("role_grantees", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
