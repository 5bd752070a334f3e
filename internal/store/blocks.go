package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/soramitsu/iroha-explorer/internal/httputil"
)

type BlockView struct {
	Height           uint64
	Hash             string
	PrevBlockHash    *string
	TransactionsHash *string
	CreatedAt        time.Time
	TransactionCount int
}

// ListBlocks returns blocks ordered by height descending (most recent first).
func (s *Store) ListBlocks(ctx context.Context, req PageRequest) (httputil.Page[BlockView], error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocks`).Scan(&total); err != nil {
		return httputil.Page[BlockView]{}, wrapStoreErr("list_blocks", err)
	}

	limit, offset := req.limitOffset()
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.height, b.hash, b.prev_block_hash, b.transactions_hash, b.created_at,
			(SELECT COUNT(*) FROM transactions t WHERE t.block = b.height) AS tx_count
		FROM blocks b ORDER BY b.height DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return httputil.Page[BlockView]{}, wrapStoreErr("list_blocks", err)
	}
	defer rows.Close()

	var items []BlockView
	for rows.Next() {
		bv, err := scanBlock(rows)
		if err != nil {
			return httputil.Page[BlockView]{}, wrapStoreErr("list_blocks", err)
		}
		items = append(items, bv)
	}
	if err := rows.Err(); err != nil {
		return httputil.Page[BlockView]{}, wrapStoreErr("list_blocks", err)
	}

	return newPage(items, req, total), nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBlock(row rowScanner) (BlockView, error) {
	var bv BlockView
	var prevHash, txHash sql.NullString
	var createdAt string
	if err := row.Scan(&bv.Height, &bv.Hash, &prevHash, &txHash, &createdAt, &bv.TransactionCount); err != nil {
		return BlockView{}, err
	}
	if prevHash.Valid {
		bv.PrevBlockHash = &prevHash.String
	}
	if txHash.Valid {
		bv.TransactionsHash = &txHash.String
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return BlockView{}, err
	}
	bv.CreatedAt = t
	return bv, nil
}

const blockSelect = `
	SELECT b.height, b.hash, b.prev_block_hash, b.transactions_hash, b.created_at,
		(SELECT COUNT(*) FROM transactions t WHERE t.block = b.height) AS tx_count
	FROM blocks b WHERE `

// GetBlock looks a block up by height (numeric) or hash (hex string), per
// the combined {height_or_hash} path segment the HTTP surface accepts.
func (s *Store) GetBlock(ctx context.Context, heightOrHash string) (*BlockView, error) {
	var row *sql.Row
	if height, err := strconv.ParseUint(heightOrHash, 10, 64); err == nil {
		row = s.db.QueryRowContext(ctx, blockSelect+`b.height = ?`, height)
	} else {
		row = s.db.QueryRowContext(ctx, blockSelect+`b.hash = ?`, heightOrHash)
	}

	bv, err := scanBlock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "block", ID: heightOrHash}
	}
	if err != nil {
		return nil, wrapStoreErr("get_block", err)
	}
	return &bv, nil
}
