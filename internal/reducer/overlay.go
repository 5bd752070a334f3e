package reducer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/soramitsu/iroha-explorer/internal/store"
)

// overlay is the reducer's per-block working set: world-state rows touched
// by this block's instructions, seeded lazily from the Reader on first
// touch and accumulated across every instruction in the block before a
// single flush into the store.Batch. This lets multiple instructions
// within one block (e.g. two Mints of the same asset) net out into one
// upsert instead of round-tripping the store mid-block.
type overlay struct {
	current Reader

	domains        map[string]*store.Domain
	deletedDomains map[string]bool
	domainOwners   map[string]store.AccountID

	accounts        map[store.AccountID]*store.Account
	deletedAccounts map[store.AccountID]bool

	assetDefs        map[string]*store.AssetDefinition
	deletedAssetDefs map[string]bool

	assetValues map[store.AssetID]decimal.Decimal

	nfts        map[store.NftID]*store.NFT
	deletedNFTs map[store.NftID]bool

	roles        map[string]*store.Role
	deletedRoles map[string]bool

	peers        map[string]*store.Peer
	deletedPeers map[string]bool

	roleGrants map[roleAccountKey]bool // true: grant pending, false: revoke pending
}

type roleAccountKey struct {
	Role    string
	Account store.AccountID
}

func (k roleAccountKey) String() string { return k.Role + "@" + k.Account.String() }

func identityKey(s string) string { return s }

// sortedMapKeys returns m's keys ordered by key's string projection, giving
// flushInto a stable iteration order regardless of Go's randomized map
// iteration (spec.md §8 P2: re-reducing the same block must yield a
// byte-identical batch).
func sortedMapKeys[K comparable, V any](m map[K]V, key func(K) string) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return key(keys[i]) < key(keys[j]) })
	return keys
}

func newOverlay(current Reader) *overlay {
	return &overlay{
		current:          current,
		domains:          map[string]*store.Domain{},
		deletedDomains:   map[string]bool{},
		domainOwners:     map[string]store.AccountID{},
		accounts:         map[store.AccountID]*store.Account{},
		deletedAccounts:  map[store.AccountID]bool{},
		assetDefs:        map[string]*store.AssetDefinition{},
		deletedAssetDefs: map[string]bool{},
		assetValues:      map[store.AssetID]decimal.Decimal{},
		nfts:             map[store.NftID]*store.NFT{},
		deletedNFTs:      map[store.NftID]bool{},
		roles:            map[string]*store.Role{},
		deletedRoles:     map[string]bool{},
		peers:            map[string]*store.Peer{},
		deletedPeers:     map[string]bool{},
		roleGrants:       map[roleAccountKey]bool{},
	}
}

func assetDefKey(name, domain string) string { return name + "#" + domain }

func isNotFound(err error) bool {
	var nf *store.NotFoundError
	return errors.As(err, &nf)
}

// --- domains ---

func (ov *overlay) upsertDomain(d store.Domain) {
	delete(ov.deletedDomains, d.Name)
	ov.domains[d.Name] = &d
}

func (ov *overlay) deleteDomain(name string) {
	delete(ov.domains, name)
	delete(ov.domainOwners, name)
	ov.deletedDomains[name] = true
}

func (ov *overlay) domain(ctx context.Context, name string) (*store.Domain, error) {
	if d, ok := ov.domains[name]; ok {
		return d, nil
	}
	cur, err := ov.current.GetDomain(ctx, name)
	if err != nil {
		return nil, err
	}
	cp := *cur
	ov.domains[name] = &cp
	return &cp, nil
}

func (ov *overlay) setDomainOwner(domain string, account store.AccountID) {
	ov.domainOwners[domain] = account
}

// --- accounts ---

func (ov *overlay) upsertAccount(a store.Account) {
	id := store.AccountID{Signatory: a.Signatory, Domain: a.Domain}
	delete(ov.deletedAccounts, id)
	ov.accounts[id] = &a
}

func (ov *overlay) deleteAccount(id store.AccountID) {
	delete(ov.accounts, id)
	ov.deletedAccounts[id] = true
}

// --- asset definitions ---

func (ov *overlay) upsertAssetDefinition(ad store.AssetDefinition) {
	key := assetDefKey(ad.Name, ad.Domain)
	delete(ov.deletedAssetDefs, key)
	ov.assetDefs[key] = &ad
}

func (ov *overlay) deleteAssetDefinition(name, domain string) {
	key := assetDefKey(name, domain)
	delete(ov.assetDefs, key)
	ov.deletedAssetDefs[key] = true
}

func (ov *overlay) assetDefinition(ctx context.Context, name, domain string) (*store.AssetDefinition, error) {
	key := assetDefKey(name, domain)
	if ad, ok := ov.assetDefs[key]; ok {
		return ad, nil
	}
	cur, err := ov.current.GetAssetDefinition(ctx, name, domain)
	if err != nil {
		return nil, err
	}
	cp := *cur
	ov.assetDefs[key] = &cp
	return &cp, nil
}

// --- assets (balances) ---

func (ov *overlay) assetValue(ctx context.Context, id store.AssetID) (decimal.Decimal, error) {
	if v, ok := ov.assetValues[id]; ok {
		return v, nil
	}
	view, err := ov.current.GetAsset(ctx, id)
	if isNotFound(err) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(view.Value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: stored asset value %q: %v", ErrMalformed, view.Value, err)
	}
	ov.assetValues[id] = d
	return d, nil
}

func (ov *overlay) setAssetValue(id store.AssetID, v decimal.Decimal) {
	ov.assetValues[id] = v
}

// --- NFTs ---

func (ov *overlay) upsertNFT(n store.NFT) {
	id := store.NftID{Name: n.Name, Domain: n.Domain}
	delete(ov.deletedNFTs, id)
	ov.nfts[id] = &n
}

func (ov *overlay) deleteNFT(id store.NftID) {
	delete(ov.nfts, id)
	ov.deletedNFTs[id] = true
}

func (ov *overlay) nft(ctx context.Context, id store.NftID) (*store.NFT, error) {
	if n, ok := ov.nfts[id]; ok {
		return n, nil
	}
	cur, err := ov.current.GetNFT(ctx, id)
	if err != nil {
		return nil, err
	}
	n := &store.NFT{Name: cur.Name, Domain: cur.Domain, OwnedBy: cur.OwnedBy, Content: cur.Content}
	ov.nfts[id] = n
	return n, nil
}

// --- roles ---

func (ov *overlay) upsertRole(r store.Role) {
	delete(ov.deletedRoles, r.Name)
	ov.roles[r.Name] = &r
}

func (ov *overlay) deleteRole(name string) {
	delete(ov.roles, name)
	ov.deletedRoles[name] = true
}

func (ov *overlay) grantRole(role string, account store.AccountID) {
	ov.roleGrants[roleAccountKey{Role: role, Account: account}] = true
}

func (ov *overlay) revokeRole(role string, account store.AccountID) {
	ov.roleGrants[roleAccountKey{Role: role, Account: account}] = false
}

// --- peers ---

func (ov *overlay) upsertPeer(p store.Peer) {
	delete(ov.deletedPeers, p.URL)
	ov.peers[p.URL] = &p
}

func (ov *overlay) deletePeer(url string) {
	delete(ov.peers, url)
	ov.deletedPeers[url] = true
}

// --- metadata patching (SetKeyValue / RemoveKeyValue) ---

// patchMetadata resolves the tagged object a SetKeyValue/RemoveKeyValue
// instruction names and merges or deletes a single key in its metadata blob.
// Object kinds with no metadata column in this projection (Asset, Trigger,
// ...) are history-only no-ops.
func (ov *overlay) patchMetadata(ctx context.Context, box taggedBox, key string, value json.RawMessage, remove bool) error {
	switch box.Kind {
	case "Domain":
		var id string
		if err := json.Unmarshal(box.Body, &id); err != nil {
			return fmt.Errorf("%w: set/remove key value on domain: %v", ErrMalformed, err)
		}
		d, err := ov.domain(ctx, id)
		if err != nil {
			return err
		}
		patched, err := patchJSON(d.Metadata, key, value, remove)
		if err != nil {
			return err
		}
		d.Metadata = patched
		ov.upsertDomain(*d)

	case "Account":
		var idStr string
		if err := json.Unmarshal(box.Body, &idStr); err != nil {
			return fmt.Errorf("%w: set/remove key value on account: %v", ErrMalformed, err)
		}
		id, err := store.ParseAccountID(idStr)
		if err != nil {
			return fmt.Errorf("%w: set/remove key value account id: %v", ErrMalformed, err)
		}
		a, err := ov.account(ctx, id)
		if err != nil {
			return err
		}
		patched, err := patchJSON(a.Metadata, key, value, remove)
		if err != nil {
			return err
		}
		a.Metadata = patched
		ov.upsertAccount(*a)

	case "AssetDefinition":
		var idStr string
		if err := json.Unmarshal(box.Body, &idStr); err != nil {
			return fmt.Errorf("%w: set/remove key value on asset definition: %v", ErrMalformed, err)
		}
		name, domain, err := splitHashID(idStr)
		if err != nil {
			return fmt.Errorf("%w: set/remove key value asset definition id: %v", ErrMalformed, err)
		}
		ad, err := ov.assetDefinition(ctx, name, domain)
		if err != nil {
			return err
		}
		patched, err := patchJSON(ad.Metadata, key, value, remove)
		if err != nil {
			return err
		}
		ad.Metadata = patched
		ov.upsertAssetDefinition(*ad)

	case "Nft":
		var idStr string
		if err := json.Unmarshal(box.Body, &idStr); err != nil {
			return fmt.Errorf("%w: set/remove key value on nft: %v", ErrMalformed, err)
		}
		id, err := store.ParseNftID(idStr)
		if err != nil {
			return fmt.Errorf("%w: set/remove key value nft id: %v", ErrMalformed, err)
		}
		n, err := ov.nft(ctx, id)
		if err != nil {
			return err
		}
		patched, err := patchJSON(n.Content, key, value, remove)
		if err != nil {
			return err
		}
		n.Content = patched
		ov.upsertNFT(*n)

	default:
		// Asset store values, triggers, etc. carry no metadata column here.
	}
	return nil
}

func (ov *overlay) account(ctx context.Context, id store.AccountID) (*store.Account, error) {
	if a, ok := ov.accounts[id]; ok {
		return a, nil
	}
	cur, err := ov.current.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := *cur
	ov.accounts[id] = &cp
	return &cp, nil
}

func patchJSON(raw []byte, key string, value json.RawMessage, remove bool) ([]byte, error) {
	obj := map[string]json.RawMessage{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("%w: stored metadata is not a JSON object: %v", ErrMalformed, err)
		}
	}
	if remove {
		delete(obj, key)
	} else {
		obj[key] = value
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// flushInto writes every entry touched during Reduce into the batch, in a
// form store.Apply can commit. Asset balances that net to zero are deleted
// rather than upserted with a zero value, per the mutation table.
func (ov *overlay) flushInto(batch *store.Batch) {
	for _, name := range sortedMapKeys(ov.domains, identityKey) {
		batch.UpsertDomains = append(batch.UpsertDomains, *ov.domains[name])
	}
	for _, name := range sortedMapKeys(ov.deletedDomains, identityKey) {
		batch.DeleteDomains = append(batch.DeleteDomains, name)
	}
	for _, domain := range sortedMapKeys(ov.domainOwners, identityKey) {
		batch.SetDomainOwners = append(batch.SetDomainOwners, struct {
			Domain  string
			Account store.AccountID
		}{Domain: domain, Account: ov.domainOwners[domain]})
	}

	for _, id := range sortedMapKeys(ov.accounts, store.AccountID.String) {
		batch.UpsertAccounts = append(batch.UpsertAccounts, *ov.accounts[id])
	}
	for _, id := range sortedMapKeys(ov.deletedAccounts, store.AccountID.String) {
		batch.DeleteAccounts = append(batch.DeleteAccounts, id)
	}

	for _, key := range sortedMapKeys(ov.assetDefs, identityKey) {
		batch.UpsertAssetDefinitions = append(batch.UpsertAssetDefinitions, *ov.assetDefs[key])
	}
	for _, key := range sortedMapKeys(ov.deletedAssetDefs, identityKey) {
		name, domain, _ := splitHashID(key)
		batch.DeleteAssetDefinitions = append(batch.DeleteAssetDefinitions, struct{ Name, Domain string }{name, domain})
	}

	for _, id := range sortedMapKeys(ov.assetValues, store.AssetID.String) {
		v := ov.assetValues[id]
		if v.IsZero() {
			batch.DeleteAssets = append(batch.DeleteAssets, id)
			continue
		}
		batch.UpsertAssets = append(batch.UpsertAssets, store.Asset{
			DefinitionName:   id.DefinitionName,
			DefinitionDomain: id.DefinitionDomain,
			OwnedBy:          id.OwnedBy,
			Value:            v.String(),
		})
	}

	for _, id := range sortedMapKeys(ov.nfts, store.NftID.String) {
		batch.UpsertNFTs = append(batch.UpsertNFTs, *ov.nfts[id])
	}
	for _, id := range sortedMapKeys(ov.deletedNFTs, store.NftID.String) {
		batch.DeleteNFTs = append(batch.DeleteNFTs, id)
	}

	for _, name := range sortedMapKeys(ov.roles, identityKey) {
		batch.UpsertRoles = append(batch.UpsertRoles, *ov.roles[name])
	}
	for _, name := range sortedMapKeys(ov.deletedRoles, identityKey) {
		batch.DeleteRoles = append(batch.DeleteRoles, name)
	}

	for _, k := range sortedMapKeys(ov.roleGrants, roleAccountKey.String) {
		if ov.roleGrants[k] {
			batch.GrantRoles = append(batch.GrantRoles, store.RoleGrant{Role: k.Role, Account: k.Account})
		} else {
			batch.RevokeRoles = append(batch.RevokeRoles, store.RoleGrant{Role: k.Role, Account: k.Account})
		}
	}

	for _, url := range sortedMapKeys(ov.peers, identityKey) {
		batch.UpsertPeers = append(batch.UpsertPeers, *ov.peers[url])
	}
	for _, url := range sortedMapKeys(ov.deletedPeers, identityKey) {
		batch.DeletePeers = append(batch.DeletePeers, url)
	}
}
