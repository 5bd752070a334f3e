package store

import (
	"context"
	"fmt"
	"time"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
)

type InstructionView struct {
	TransactionHash   string
	Position          int
	Kind              string
	Payload           []byte
	Block             uint64
	CreatedAt         time.Time
	Authority         string
	TransactionStatus string
}

// InstructionFilter narrows ListInstructions. Zero-value fields are unfiltered.
type InstructionFilter struct {
	Kind              string
	Authority         string
	TransactionStatus string
	TransactionHash   string
	Block             *uint64
}

func (f InstructionFilter) whereClause() (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if f.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.Authority != "" {
		clauses = append(clauses, "authority = ?")
		args = append(args, f.Authority)
	}
	if f.TransactionStatus != "" {
		clauses = append(clauses, "transaction_status = ?")
		args = append(args, f.TransactionStatus)
	}
	if f.TransactionHash != "" {
		clauses = append(clauses, "transaction_hash = ?")
		args = append(args, f.TransactionHash)
	}
	if f.Block != nil {
		clauses = append(clauses, "block = ?")
		args = append(args, *f.Block)
	}
	if len(clauses) == 0 {
		return "", args
	}
	where := "WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

// ListInstructions returns instructions ordered by created_at descending,
// then transaction hash, then position, matching the feed's most-recent-first
// presentation.
func (s *Store) ListInstructions(ctx context.Context, req PageRequest, filter InstructionFilter) (httputil.Page[InstructionView], error) {
	where, args := filter.whereClause()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM v_instructions `+where, args...).Scan(&total); err != nil {
		return httputil.Page[InstructionView]{}, wrapStoreErr("list_instructions", err)
	}

	limit, offset := req.limitOffset()
	queryArgs := append(append([]interface{}{}, args...), limit, offset)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT transaction_hash, position, kind, payload, block, created_at, authority, transaction_status
		FROM v_instructions %s
		ORDER BY created_at DESC, transaction_hash ASC, position ASC LIMIT ? OFFSET ?`, where), queryArgs...)
	if err != nil {
		return httputil.Page[InstructionView]{}, wrapStoreErr("list_instructions", err)
	}
	defer rows.Close()

	var items []InstructionView
	for rows.Next() {
		var iv InstructionView
		var createdAt, payload string
		if err := rows.Scan(&iv.TransactionHash, &iv.Position, &iv.Kind, &payload, &iv.Block, &createdAt, &iv.Authority, &iv.TransactionStatus); err != nil {
			return httputil.Page[InstructionView]{}, wrapStoreErr("list_instructions", err)
		}
		t, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return httputil.Page[InstructionView]{}, wrapStoreErr("list_instructions", err)
		}
		iv.CreatedAt = t
		iv.Payload = []byte(payload)
		items = append(items, iv)
	}
	if err := rows.Err(); err != nil {
		return httputil.Page[InstructionView]{}, wrapStoreErr("list_instructions", err)
	}

	return newPage(items, req, total), nil
}
