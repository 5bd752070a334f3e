// Package reducer turns a decoded chain block into the store's mutation
// batch: history rows for every transaction and instruction, plus
// world-state upserts/deletes for committed transactions, per the
// instruction mutation table.
package reducer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/soramitsu/iroha-explorer/internal/chain"
	"github.com/soramitsu/iroha-explorer/internal/logging"
	"github.com/soramitsu/iroha-explorer/internal/store"
)

// Reader is the read-only slice of the repository the reducer needs to
// compute deltas (current balance for Mint/Burn/Transfer, current
// metadata for SetKeyValue/RemoveKeyValue). A *store.Store satisfies it.
type Reader interface {
	GetAsset(ctx context.Context, id store.AssetID) (*store.AssetView, error)
	GetDomain(ctx context.Context, name string) (*store.Domain, error)
	GetAccount(ctx context.Context, id store.AccountID) (*store.Account, error)
	GetAssetDefinition(ctx context.Context, name, domain string) (*store.AssetDefinition, error)
	GetNFT(ctx context.Context, id store.NftID) (*store.NFTView, error)
}

// Reducer is stateless between blocks; all per-block working state lives in
// the overlay built during Reduce.
type Reducer struct {
	log *logging.Logger
}

func New(log *logging.Logger) *Reducer {
	return &Reducer{log: log}
}

// Reduce computes the mutation batch for one committed block. current reads
// through to world state as it stood immediately before this block.
func (r *Reducer) Reduce(ctx context.Context, current Reader, block *chain.Block) (store.Batch, error) {
	batch := store.Batch{
		Block: store.Block{
			Height:           block.Height,
			Hash:             block.Hash,
			PrevBlockHash:    block.PrevBlockHash,
			TransactionsHash: block.TransactionsHash,
			CreatedAt:        block.CreatedAt,
		},
	}

	ov := newOverlay(current)

	for pos, tx := range block.Transactions {
		executable := string(tx.Executable)
		var wasmSize *int
		if len(tx.WASM) > 0 {
			n := len(tx.WASM)
			wasmSize = &n
		}

		batch.Transactions = append(batch.Transactions, store.Transaction{
			Hash:         tx.Hash,
			Block:        block.Height,
			Position:     pos,
			CreatedAt:    tx.CreatedAt,
			Authority:    store.AccountID{Signatory: tx.AuthoritySig, Domain: tx.AuthorityDomain},
			Signature:    tx.Signature,
			Nonce:        tx.Nonce,
			Metadata:     []byte(tx.Metadata),
			TimeToLiveMs: tx.TimeToLiveMs,
			Executable:   executable,
			WasmSize:     wasmSize,
			Error:        []byte(tx.Error),
		})

		for ipos, inst := range tx.Instructions {
			batch.Instructions = append(batch.Instructions, store.Instruction{
				TransactionHash: tx.Hash,
				Position:        ipos,
				Kind:            inst.Kind,
				Payload:         []byte(inst.Payload),
			})
		}

		if !tx.Committed() {
			continue
		}

		if err := applyTransferAssetDefinitionGuard(tx.Instructions); err != nil {
			return store.Batch{}, &ReducerError{TransactionHash: tx.Hash, Instruction: "Transfer", Err: err}
		}

		for _, inst := range tx.Instructions {
			if err := r.applyInstruction(ctx, ov, inst); err != nil {
				return store.Batch{}, &ReducerError{TransactionHash: tx.Hash, Instruction: inst.Kind, Err: err}
			}
		}
	}

	ov.flushInto(&batch)
	return batch, nil
}

// applyTransferAssetDefinitionGuard implements the §9 design-note
// resolution: a Transfer(AssetDefinition) is ambiguous, and therefore
// rejected, when the same transaction also mutates an Asset balance under
// that same definition.
func applyTransferAssetDefinitionGuard(instructions []chain.Instruction) error {
	transferredDefs := map[string]bool{}
	touchedAssetDefs := map[string]bool{}

	for _, inst := range instructions {
		switch inst.Kind {
		case "Transfer":
			env, err := decodeTransfer(inst.Payload)
			if err != nil {
				continue
			}
			if env.box.Kind == "AssetDefinition" {
				transferredDefs[env.SourceID] = true
			}
			if env.box.Kind == "Asset" {
				if id, err := store.ParseAssetID(env.SourceID); err == nil {
					touchedAssetDefs[id.DefinitionName+"#"+id.DefinitionDomain] = true
				}
			}
		case "Mint", "Burn":
			var env objectEnvelope
			if json.Unmarshal(inst.Payload, &env) != nil {
				continue
			}
			box, err := decodeTaggedBox(env.Object)
			if err != nil || box.Kind != "Asset" {
				continue
			}
			var mb mintBurnBody
			if json.Unmarshal(box.Body, &mb) != nil {
				continue
			}
			if id, err := store.ParseAssetID(mb.ID); err == nil {
				touchedAssetDefs[id.DefinitionName+"#"+id.DefinitionDomain] = true
			}
		}
	}

	for def := range transferredDefs {
		if touchedAssetDefs[def] {
			return fmt.Errorf("transaction both transfers AssetDefinition %q and mutates an Asset balance under it", def)
		}
	}
	return nil
}

func (r *Reducer) applyInstruction(ctx context.Context, ov *overlay, inst chain.Instruction) error {
	switch inst.Kind {
	case "Register":
		return r.applyRegister(ctx, ov, inst.Payload)
	case "Unregister":
		return r.applyUnregister(ctx, ov, inst.Payload)
	case "Mint":
		return r.applyMintBurn(ctx, ov, inst.Payload, true)
	case "Burn":
		return r.applyMintBurn(ctx, ov, inst.Payload, false)
	case "Transfer":
		return r.applyTransfer(ctx, ov, inst.Payload)
	case "SetKeyValue":
		return r.applySetKeyValue(ctx, ov, inst.Payload)
	case "RemoveKeyValue":
		return r.applyRemoveKeyValue(ctx, ov, inst.Payload)
	case "Grant":
		return r.applyGrantRevoke(ctx, ov, inst.Payload, true)
	case "Revoke":
		return r.applyGrantRevoke(ctx, ov, inst.Payload, false)
	case "ExecuteTrigger", "Log", "SetParameter", "Upgrade", "Custom":
		return nil
	default:
		if r.log != nil {
			r.log.WithFields(map[string]interface{}{"kind": inst.Kind}).Warn("reducer: unrecognized instruction kind, treated as history-only")
		}
		return nil
	}
}

func (r *Reducer) applyRegister(ctx context.Context, ov *overlay, payload json.RawMessage) error {
	var env objectEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("%w: register: %v", ErrMalformed, err)
	}
	box, err := decodeTaggedBox(env.Object)
	if err != nil {
		return err
	}

	switch box.Kind {
	case "Domain":
		var b domainBody
		if err := json.Unmarshal(box.Body, &b); err != nil {
			return fmt.Errorf("%w: register domain: %v", ErrMalformed, err)
		}
		ov.upsertDomain(store.Domain{Name: b.ID, Logo: b.Logo, Metadata: b.Metadata})
	case "Account":
		var b accountBody
		if err := json.Unmarshal(box.Body, &b); err != nil {
			return fmt.Errorf("%w: register account: %v", ErrMalformed, err)
		}
		id, err := store.ParseAccountID(b.ID)
		if err != nil {
			return fmt.Errorf("%w: register account: %v", ErrMalformed, err)
		}
		ov.upsertAccount(store.Account{Signatory: id.Signatory, Domain: id.Domain, Metadata: b.Metadata})
	case "AssetDefinition":
		var b assetDefinitionBody
		if err := json.Unmarshal(box.Body, &b); err != nil {
			return fmt.Errorf("%w: register asset definition: %v", ErrMalformed, err)
		}
		name, domain, err := splitHashID(b.ID)
		if err != nil {
			return fmt.Errorf("%w: register asset definition: %v", ErrMalformed, err)
		}
		owner, err := store.ParseAccountID(b.OwnedBy)
		if err != nil {
			return fmt.Errorf("%w: register asset definition: %v", ErrMalformed, err)
		}
		ov.upsertAssetDefinition(store.AssetDefinition{Name: name, Domain: domain, OwnedBy: owner, Mintable: b.Mintable, Metadata: b.Metadata})
	case "Nft":
		var b nftBody
		if err := json.Unmarshal(box.Body, &b); err != nil {
			return fmt.Errorf("%w: register nft: %v", ErrMalformed, err)
		}
		nid, err := store.ParseNftID(b.ID)
		if err != nil {
			return fmt.Errorf("%w: register nft: %v", ErrMalformed, err)
		}
		owner, err := store.ParseAccountID(b.OwnedBy)
		if err != nil {
			return fmt.Errorf("%w: register nft: %v", ErrMalformed, err)
		}
		ov.upsertNFT(store.NFT{Name: nid.Name, Domain: nid.Domain, OwnedBy: owner, Content: b.Content})
	case "Peer":
		var b peerBody
		if err := json.Unmarshal(box.Body, &b); err != nil {
			return fmt.Errorf("%w: register peer: %v", ErrMalformed, err)
		}
		ov.upsertPeer(store.Peer{URL: b.ID, PublicKey: b.PublicKey})
	case "Role":
		var b roleBody
		if err := json.Unmarshal(box.Body, &b); err != nil {
			return fmt.Errorf("%w: register role: %v", ErrMalformed, err)
		}
		ov.upsertRole(store.Role{Name: b.ID, Permissions: b.Permissions})
	default:
		// Unknown registrable kind: history-only, no world-state effect.
	}
	return nil
}

func (r *Reducer) applyUnregister(ctx context.Context, ov *overlay, payload json.RawMessage) error {
	var env objectEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("%w: unregister: %v", ErrMalformed, err)
	}
	box, err := decodeTaggedBox(env.Object)
	if err != nil {
		return err
	}

	var idStr string
	if err := json.Unmarshal(box.Body, &idStr); err != nil {
		// Some unregister payloads carry {"id": "..."} instead of a bare string.
		var withID struct {
			ID string `json:"id"`
		}
		if err2 := json.Unmarshal(box.Body, &withID); err2 != nil {
			return fmt.Errorf("%w: unregister %s: %v", ErrMalformed, box.Kind, err)
		}
		idStr = withID.ID
	}

	switch box.Kind {
	case "Domain":
		ov.deleteDomain(idStr)
	case "Account":
		id, err := store.ParseAccountID(idStr)
		if err != nil {
			return fmt.Errorf("%w: unregister account: %v", ErrMalformed, err)
		}
		ov.deleteAccount(id)
	case "AssetDefinition":
		name, domain, err := splitHashID(idStr)
		if err != nil {
			return fmt.Errorf("%w: unregister asset definition: %v", ErrMalformed, err)
		}
		ov.deleteAssetDefinition(name, domain)
	case "Nft":
		id, err := store.ParseNftID(idStr)
		if err != nil {
			return fmt.Errorf("%w: unregister nft: %v", ErrMalformed, err)
		}
		ov.deleteNFT(id)
	case "Peer":
		ov.deletePeer(idStr)
	case "Role":
		ov.deleteRole(idStr)
	default:
		// history-only
	}
	return nil
}

func (r *Reducer) applyMintBurn(ctx context.Context, ov *overlay, payload json.RawMessage, mint bool) error {
	var env objectEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("%w: mint/burn: %v", ErrMalformed, err)
	}
	box, err := decodeTaggedBox(env.Object)
	if err != nil {
		return err
	}
	if box.Kind != "Asset" {
		// Mint(TriggerRepetitions) and similar non-asset mints exist in
		// real Iroha but have no balance row in this projection.
		return nil
	}

	var mb mintBurnBody
	if err := json.Unmarshal(box.Body, &mb); err != nil {
		return fmt.Errorf("%w: mint/burn asset: %v", ErrMalformed, err)
	}
	id, err := store.ParseAssetID(mb.ID)
	if err != nil {
		return fmt.Errorf("%w: mint/burn asset id: %v", ErrMalformed, err)
	}
	amount, err := decimal.NewFromString(mb.Amount)
	if err != nil {
		return fmt.Errorf("%w: mint/burn amount %q: %v", ErrMalformed, mb.Amount, err)
	}

	current, err := ov.assetValue(ctx, id)
	if err != nil {
		return err
	}

	var next decimal.Decimal
	if mint {
		next = current.Add(amount)
	} else {
		next = current.Sub(amount)
		if next.IsNegative() {
			next = decimal.Zero
		}
	}
	ov.setAssetValue(id, next)
	return nil
}

func (r *Reducer) applyTransfer(ctx context.Context, ov *overlay, payload json.RawMessage) error {
	env, err := decodeTransfer(payload)
	if err != nil {
		return err
	}

	switch env.box.Kind {
	case "Asset":
		var obj transferAssetObject
		if err := json.Unmarshal(env.box.Body, &obj); err != nil {
			return fmt.Errorf("%w: transfer asset: %v", ErrMalformed, err)
		}
		srcID, err := store.ParseAssetID(env.SourceID)
		if err != nil {
			return fmt.Errorf("%w: transfer asset source: %v", ErrMalformed, err)
		}
		destAccount, err := store.ParseAccountID(env.DestinationID)
		if err != nil {
			return fmt.Errorf("%w: transfer asset destination: %v", ErrMalformed, err)
		}
		amount, err := decimal.NewFromString(obj.Amount)
		if err != nil {
			return fmt.Errorf("%w: transfer asset amount %q: %v", ErrMalformed, obj.Amount, err)
		}

		srcBalance, err := ov.assetValue(ctx, srcID)
		if err != nil {
			return err
		}
		nextSrc := srcBalance.Sub(amount)
		if nextSrc.IsNegative() {
			nextSrc = decimal.Zero
		}
		ov.setAssetValue(srcID, nextSrc)

		destID := store.AssetID{DefinitionName: srcID.DefinitionName, DefinitionDomain: srcID.DefinitionDomain, OwnedBy: destAccount}
		destBalance, err := ov.assetValue(ctx, destID)
		if err != nil {
			return err
		}
		ov.setAssetValue(destID, destBalance.Add(amount))

	case "Nft":
		id, err := store.ParseNftID(env.SourceID)
		if err != nil {
			return fmt.Errorf("%w: transfer nft source: %v", ErrMalformed, err)
		}
		destAccount, err := store.ParseAccountID(env.DestinationID)
		if err != nil {
			return fmt.Errorf("%w: transfer nft destination: %v", ErrMalformed, err)
		}
		nft, err := ov.nft(ctx, id)
		if err != nil {
			return err
		}
		nft.OwnedBy = destAccount
		ov.upsertNFT(*nft)

	case "Domain":
		destAccount, err := store.ParseAccountID(env.DestinationID)
		if err != nil {
			return fmt.Errorf("%w: transfer domain destination: %v", ErrMalformed, err)
		}
		ov.setDomainOwner(env.SourceID, destAccount)

	case "AssetDefinition":
		name, domain, err := splitHashID(env.SourceID)
		if err != nil {
			return fmt.Errorf("%w: transfer asset definition source: %v", ErrMalformed, err)
		}
		destAccount, err := store.ParseAccountID(env.DestinationID)
		if err != nil {
			return fmt.Errorf("%w: transfer asset definition destination: %v", ErrMalformed, err)
		}
		def, err := ov.assetDefinition(ctx, name, domain)
		if err != nil {
			return err
		}
		def.OwnedBy = destAccount
		ov.upsertAssetDefinition(*def)

	default:
		// history-only transfer kind
	}
	return nil
}

type decodedTransfer struct {
	transferEnvelope
	box taggedBox
}

func decodeTransfer(payload json.RawMessage) (decodedTransfer, error) {
	var env transferEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return decodedTransfer{}, fmt.Errorf("%w: transfer: %v", ErrMalformed, err)
	}
	box, err := decodeTaggedBox(env.Object)
	if err != nil {
		return decodedTransfer{}, err
	}
	return decodedTransfer{transferEnvelope: env, box: box}, nil
}

func (r *Reducer) applySetKeyValue(ctx context.Context, ov *overlay, payload json.RawMessage) error {
	var env keyValueEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("%w: set key value: %v", ErrMalformed, err)
	}
	box, err := decodeTaggedBox(env.ObjectID)
	if err != nil {
		return err
	}
	return ov.patchMetadata(ctx, box, env.Key, env.Value, false)
}

func (r *Reducer) applyRemoveKeyValue(ctx context.Context, ov *overlay, payload json.RawMessage) error {
	var env keyValueEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("%w: remove key value: %v", ErrMalformed, err)
	}
	box, err := decodeTaggedBox(env.ObjectID)
	if err != nil {
		return err
	}
	return ov.patchMetadata(ctx, box, env.Key, nil, true)
}

func (r *Reducer) applyGrantRevoke(ctx context.Context, ov *overlay, payload json.RawMessage, grant bool) error {
	var env grantRevokeEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("%w: grant/revoke: %v", ErrMalformed, err)
	}
	box, err := decodeTaggedBox(env.Object)
	if err != nil {
		return err
	}
	if box.Kind != "Role" {
		// Granting/revoking a raw permission token is history-only.
		return nil
	}

	var roleName string
	if err := json.Unmarshal(box.Body, &roleName); err != nil {
		return fmt.Errorf("%w: grant/revoke role: %v", ErrMalformed, err)
	}
	account, err := store.ParseAccountID(env.DestinationID)
	if err != nil {
		return fmt.Errorf("%w: grant/revoke destination: %v", ErrMalformed, err)
	}

	if grant {
		ov.grantRole(roleName, account)
	} else {
		ov.revokeRole(roleName, account)
	}
	return nil
}

// splitHashID splits a "<name>#<domain>" composite id used by asset
// definitions. Unlike asset/account ids this segment never itself contains
// '#', so a single split suffices.
func splitHashID(raw string) (name, domain string, err error) {
	for i := 0; i < len(raw); i++ {
		if raw[i] == '#' {
			if i == 0 || i == len(raw)-1 {
				break
			}
			return raw[:i], raw[i+1:], nil
		}
	}
	return "", "", errors.New("expected \"<name>#<domain>\"")
}
