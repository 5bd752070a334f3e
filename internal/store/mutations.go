package store

import (
	"context"
	"database/sql"
)

// Batch is the reducer's output for one block: every world-state mutation
// and history row it produces, applied atomically by Apply. Upserts and
// deletes are processed in dependency order (domains before accounts before
// asset definitions/assets/nfts/roles) so foreign-key constraints hold
// mid-transaction.
type Batch struct {
	Block        Block
	Transactions []Transaction
	Instructions []Instruction

	UpsertDomains []Domain
	DeleteDomains []string

	SetDomainOwners []struct {
		Domain  string
		Account AccountID
	}

	UpsertAccounts []Account
	DeleteAccounts []AccountID

	UpsertAssetDefinitions []AssetDefinition
	DeleteAssetDefinitions []struct{ Name, Domain string }

	UpsertAssets []Asset
	DeleteAssets []AssetID

	UpsertNFTs []NFT
	DeleteNFTs []NftID

	UpsertRoles []Role
	DeleteRoles []string

	GrantRoles  []RoleGrant
	RevokeRoles []RoleGrant

	UpsertPeers []Peer
	DeletePeers []string
}

// Apply commits one block's mutation batch in a single transaction. The
// ingest supervisor is its only caller and calls it from one goroutine,
// without a lock; Apply itself does not synchronize concurrent callers.
func (s *Store) Apply(ctx context.Context, b Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStoreErr("apply", err)
	}
	defer tx.Rollback()

	steps := []func(context.Context, *sql.Tx, Batch) error{
		applyDomains,
		applyAccounts,
		applyDomainOwners,
		applyAssetDefinitions,
		applyAssets,
		applyNFTs,
		applyRoles,
		applyRoleGrants,
		applyPeers,
		applyBlock,
		applyTransactions,
		applyInstructions,
	}
	for _, step := range steps {
		if err := step(ctx, tx, b); err != nil {
			return wrapStoreErr("apply", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapStoreErr("apply", err)
	}
	return nil
}

func applyDomains(ctx context.Context, tx *sql.Tx, b Batch) error {
	for _, d := range b.UpsertDomains {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO domains (name, logo, metadata) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET logo = excluded.logo, metadata = excluded.metadata`,
			d.Name, d.Logo, string(orEmptyJSON(d.Metadata)))
		if err != nil {
			return err
		}
	}
	for _, name := range b.DeleteDomains {
		if _, err := tx.ExecContext(ctx, `DELETE FROM domains WHERE name = ?`, name); err != nil {
			return err
		}
	}
	return nil
}

func applyAccounts(ctx context.Context, tx *sql.Tx, b Batch) error {
	for _, a := range b.UpsertAccounts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (signatory, domain, metadata) VALUES (?, ?, ?)
			ON CONFLICT(signatory, domain) DO UPDATE SET metadata = excluded.metadata`,
			a.Signatory, a.Domain, string(orEmptyJSON(a.Metadata)))
		if err != nil {
			return err
		}
	}
	for _, id := range b.DeleteAccounts {
		_, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE signatory = ? AND domain = ?`, id.Signatory, id.Domain)
		if err != nil {
			return err
		}
	}
	return nil
}

func applyDomainOwners(ctx context.Context, tx *sql.Tx, b Batch) error {
	for _, o := range b.SetDomainOwners {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO domain_owners (domain, account_signatory, account_domain) VALUES (?, ?, ?)
			ON CONFLICT(domain) DO UPDATE SET account_signatory = excluded.account_signatory, account_domain = excluded.account_domain`,
			o.Domain, o.Account.Signatory, o.Account.Domain)
		if err != nil {
			return err
		}
	}
	return nil
}

func applyAssetDefinitions(ctx context.Context, tx *sql.Tx, b Batch) error {
	for _, ad := range b.UpsertAssetDefinitions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO asset_definitions (name, domain, owned_by_signatory, owned_by_domain, mintable, metadata)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(name, domain) DO UPDATE SET metadata = excluded.metadata`,
			ad.Name, ad.Domain, ad.OwnedBy.Signatory, ad.OwnedBy.Domain, ad.Mintable, string(orEmptyJSON(ad.Metadata)))
		if err != nil {
			return err
		}
	}
	for _, d := range b.DeleteAssetDefinitions {
		_, err := tx.ExecContext(ctx, `DELETE FROM asset_definitions WHERE name = ? AND domain = ?`, d.Name, d.Domain)
		if err != nil {
			return err
		}
	}
	return nil
}

func applyAssets(ctx context.Context, tx *sql.Tx, b Batch) error {
	for _, a := range b.UpsertAssets {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO assets (definition_name, definition_domain, owned_by_signatory, owned_by_domain, value)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(definition_name, definition_domain, owned_by_signatory, owned_by_domain)
			DO UPDATE SET value = excluded.value`,
			a.DefinitionName, a.DefinitionDomain, a.OwnedBy.Signatory, a.OwnedBy.Domain, a.Value)
		if err != nil {
			return err
		}
	}
	for _, id := range b.DeleteAssets {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM assets WHERE definition_name = ? AND definition_domain = ? AND owned_by_signatory = ? AND owned_by_domain = ?`,
			id.DefinitionName, id.DefinitionDomain, id.OwnedBy.Signatory, id.OwnedBy.Domain)
		if err != nil {
			return err
		}
	}
	return nil
}

func applyNFTs(ctx context.Context, tx *sql.Tx, b Batch) error {
	for _, n := range b.UpsertNFTs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO nfts (name, domain, owned_by_signatory, owned_by_domain, content) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(name, domain) DO UPDATE SET owned_by_signatory = excluded.owned_by_signatory,
				owned_by_domain = excluded.owned_by_domain, content = excluded.content`,
			n.Name, n.Domain, n.OwnedBy.Signatory, n.OwnedBy.Domain, string(orEmptyJSON(n.Content)))
		if err != nil {
			return err
		}
	}
	for _, id := range b.DeleteNFTs {
		_, err := tx.ExecContext(ctx, `DELETE FROM nfts WHERE name = ? AND domain = ?`, id.Name, id.Domain)
		if err != nil {
			return err
		}
	}
	return nil
}

func applyRoles(ctx context.Context, tx *sql.Tx, b Batch) error {
	for _, r := range b.UpsertRoles {
		perms := r.Permissions
		if len(perms) == 0 {
			perms = []byte("[]")
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO roles (name, permissions) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET permissions = excluded.permissions`,
			r.Name, string(perms))
		if err != nil {
			return err
		}
	}
	for _, name := range b.DeleteRoles {
		if _, err := tx.ExecContext(ctx, `DELETE FROM roles WHERE name = ?`, name); err != nil {
			return err
		}
	}
	return nil
}

func applyRoleGrants(ctx context.Context, tx *sql.Tx, b Batch) error {
	for _, g := range b.GrantRoles {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO role_grants (role, account_signatory, account_domain) VALUES (?, ?, ?)`,
			g.Role, g.Account.Signatory, g.Account.Domain)
		if err != nil {
			return err
		}
	}
	for _, g := range b.RevokeRoles {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM role_grants WHERE role = ? AND account_signatory = ? AND account_domain = ?`,
			g.Role, g.Account.Signatory, g.Account.Domain)
		if err != nil {
			return err
		}
	}
	return nil
}

func applyPeers(ctx context.Context, tx *sql.Tx, b Batch) error {
	for _, p := range b.UpsertPeers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO peers (url, public_key) VALUES (?, ?)
			ON CONFLICT(url) DO UPDATE SET public_key = excluded.public_key`,
			p.URL, p.PublicKey)
		if err != nil {
			return err
		}
	}
	for _, url := range b.DeletePeers {
		if _, err := tx.ExecContext(ctx, `DELETE FROM peers WHERE url = ?`, url); err != nil {
			return err
		}
	}
	return nil
}

func applyBlock(ctx context.Context, tx *sql.Tx, b Batch) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO blocks (height, hash, prev_block_hash, transactions_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.Block.Height, b.Block.Hash, b.Block.PrevBlockHash, b.Block.TransactionsHash, b.Block.CreatedAt.Format(timeLayout))
	return err
}

func applyTransactions(ctx context.Context, tx *sql.Tx, b Batch) error {
	for _, t := range b.Transactions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (hash, block, position, created_at, authority_signatory, authority_domain,
				signature, nonce, metadata, time_to_live_ms, executable, wasm_size, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.Hash, t.Block, t.Position, t.CreatedAt.Format(timeLayout), t.Authority.Signatory, t.Authority.Domain,
			t.Signature, t.Nonce, string(orEmptyJSON(t.Metadata)), t.TimeToLiveMs, t.Executable, t.WasmSize, nullableJSON(t.Error))
		if err != nil {
			return err
		}
	}
	return nil
}

func applyInstructions(ctx context.Context, tx *sql.Tx, b Batch) error {
	for _, i := range b.Instructions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO instructions (transaction_hash, position, kind, value) VALUES (?, ?, ?, ?)`,
			i.TransactionHash, i.Position, i.Kind, string(i.Payload))
		if err != nil {
			return err
		}
	}
	return nil
}

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func orEmptyJSON(b []byte) []byte {
	if len(b) == 0 {
		return []byte("{}")
	}
	return b
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
