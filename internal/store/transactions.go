package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
)

type TransactionView struct {
	Hash         string
	Block        uint64
	Position     int
	CreatedAt    time.Time
	Authority    string
	Signature    string
	Nonce        *uint32
	Metadata     []byte
	TimeToLiveMs *uint64
	Executable   string
	Error        []byte // nil when committed
	Status       string // "committed" | "rejected"
}

// TransactionFilter narrows ListTransactions. Zero-value fields are unfiltered.
type TransactionFilter struct {
	Block     *uint64
	Authority string // "<signatory>@<domain>", matched against the authority column
	Status    string // "committed" | "rejected"
}

func (f TransactionFilter) whereClause() (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if f.Block != nil {
		clauses = append(clauses, "block = ?")
		args = append(args, *f.Block)
	}
	if f.Authority != "" {
		clauses = append(clauses, "authority = ?")
		args = append(args, f.Authority)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
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

// ListTransactions returns transactions ordered by block height descending,
// then position ascending within a block.
func (s *Store) ListTransactions(ctx context.Context, req PageRequest, filter TransactionFilter) (httputil.Page[TransactionView], error) {
	where, args := filter.whereClause()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM v_transactions `+where, args...).Scan(&total); err != nil {
		return httputil.Page[TransactionView]{}, wrapStoreErr("list_transactions", err)
	}

	limit, offset := req.limitOffset()
	queryArgs := append(append([]interface{}{}, args...), limit, offset)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT hash, block, position, created_at, authority, signature, nonce, metadata,
			time_to_live_ms, executable, error, status
		FROM v_transactions %s
		ORDER BY block DESC, position ASC LIMIT ? OFFSET ?`, where), queryArgs...)
	if err != nil {
		return httputil.Page[TransactionView]{}, wrapStoreErr("list_transactions", err)
	}
	defer rows.Close()

	var items []TransactionView
	for rows.Next() {
		tv, err := scanTransaction(rows)
		if err != nil {
			return httputil.Page[TransactionView]{}, wrapStoreErr("list_transactions", err)
		}
		items = append(items, tv)
	}
	if err := rows.Err(); err != nil {
		return httputil.Page[TransactionView]{}, wrapStoreErr("list_transactions", err)
	}

	return newPage(items, req, total), nil
}

func scanTransaction(row rowScanner) (TransactionView, error) {
	var tv TransactionView
	var createdAt string
	var metadata string
	var errJSON sql.NullString
	if err := row.Scan(&tv.Hash, &tv.Block, &tv.Position, &createdAt, &tv.Authority, &tv.Signature,
		&tv.Nonce, &metadata, &tv.TimeToLiveMs, &tv.Executable, &errJSON, &tv.Status); err != nil {
		return TransactionView{}, err
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return TransactionView{}, err
	}
	tv.CreatedAt = t
	tv.Metadata = []byte(metadata)
	if errJSON.Valid {
		tv.Error = []byte(errJSON.String)
	}
	return tv, nil
}

// GetTransaction fetches a single transaction by hash.
func (s *Store) GetTransaction(ctx context.Context, hash string) (*TransactionView, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT hash, block, position, created_at, authority, signature, nonce, metadata,
			time_to_live_ms, executable, error, status
		FROM v_transactions WHERE hash = ?`, hash)

	tv, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "transaction", ID: hash}
	}
	if err != nil {
		return nil, wrapStoreErr("get_transaction", err)
	}
	return &tv, nil
}

// InstructionsForTransaction returns a transaction's instructions in
// sequence order, used to populate GetTransaction's detail view.
func (s *Store) InstructionsForTransaction(ctx context.Context, hash string) ([]Instruction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_hash, position, kind, value FROM instructions
		WHERE transaction_hash = ? ORDER BY position ASC`, hash)
	if err != nil {
		return nil, wrapStoreErr("instructions_for_transaction", err)
	}
	defer rows.Close()

	var items []Instruction
	for rows.Next() {
		var i Instruction
		var value string
		if err := rows.Scan(&i.TransactionHash, &i.Position, &i.Kind, &value); err != nil {
			return nil, wrapStoreErr("instructions_for_transaction", err)
		}
		i.Payload = []byte(value)
		items = append(items, i)
	}
	return items, rows.Err()
}
