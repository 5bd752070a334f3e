package httpapi

import (
	"encoding/json"

	"github.com/soramitsu/iroha-explorer/internal/store"
)

// blockShallowResponse is the list-item shape GET /blocks returns.
type blockShallowResponse struct {
	Height           BigInt          `json:"height"`
	Hash             string          `json:"hash"`
	PrevBlockHash    *string         `json:"prev_block_hash"`
	TransactionsHash *string         `json:"transactions_hash"`
	CreatedAt        Timestamp       `json:"created_at"`
	TransactionCount int             `json:"transaction_count"`
}

func newBlockShallowResponse(b store.BlockView) blockShallowResponse {
	return blockShallowResponse{
		Height:           BigInt(b.Height),
		Hash:             b.Hash,
		PrevBlockHash:    b.PrevBlockHash,
		TransactionsHash: b.TransactionsHash,
		CreatedAt:        newTimestamp(b.CreatedAt),
		TransactionCount: b.TransactionCount,
	}
}

// blockResponse is GET /blocks/{height_or_hash}'s detail shape: the
// shallow fields plus the hashes of the transactions it commits.
type blockResponse struct {
	blockShallowResponse
	Transactions []string `json:"transactions"`
}

type instructionPayloadResponse struct {
	Kind    string          `json:"t"`
	Payload json.RawMessage `json:"c"`
}

func newInstructionPayloadResponse(kind string, payload []byte) instructionPayloadResponse {
	return instructionPayloadResponse{Kind: kind, Payload: rawOrNull(payload)}
}

// transactionResponse is the shape GET /transactions and GET
// /transactions/{hash} return; Instructions is populated only by the detail
// route.
type transactionResponse struct {
	Hash         string                       `json:"hash"`
	Block        BigInt                       `json:"block"`
	CreatedAt    Timestamp                    `json:"created_at"`
	Authority    string                       `json:"authority"`
	Signature    string                       `json:"signature"`
	Nonce        *OptionalBigInt              `json:"nonce,omitempty"`
	Metadata     json.RawMessage              `json:"metadata"`
	TimeToLiveMs *OptionalBigInt              `json:"time_to_live_ms,omitempty"`
	Executable   string                       `json:"executable"`
	Error        json.RawMessage              `json:"error"`
	Status       string                       `json:"status"`
	Instructions []instructionPayloadResponse `json:"instructions,omitempty"`
}

func newTransactionResponse(t store.TransactionView) transactionResponse {
	var nonce *uint64
	if t.Nonce != nil {
		n := uint64(*t.Nonce)
		nonce = &n
	}
	var errJSON json.RawMessage
	if len(t.Error) > 0 {
		errJSON = json.RawMessage(t.Error)
	} else {
		errJSON = json.RawMessage("null")
	}
	return transactionResponse{
		Hash:         t.Hash,
		Block:        BigInt(t.Block),
		CreatedAt:    newTimestamp(t.CreatedAt),
		Authority:    t.Authority,
		Signature:    t.Signature,
		Nonce:        optBigInt(nonce),
		Metadata:     rawOrNull(t.Metadata),
		TimeToLiveMs: optBigInt(t.TimeToLiveMs),
		Executable:   t.Executable,
		Error:        errJSON,
		Status:       t.Status,
	}
}

// instructionResponse is the shape GET /instructions returns.
type instructionResponse struct {
	instructionPayloadResponse
	TransactionHash   string    `json:"transaction_hash"`
	Block             BigInt    `json:"block"`
	CreatedAt         Timestamp `json:"created_at"`
	Authority         string    `json:"authority"`
	TransactionStatus string    `json:"transaction_status"`
}

func newInstructionResponse(iv store.InstructionView) instructionResponse {
	return instructionResponse{
		instructionPayloadResponse: newInstructionPayloadResponse(iv.Kind, iv.Payload),
		TransactionHash:            iv.TransactionHash,
		Block:                      BigInt(iv.Block),
		CreatedAt:                  newTimestamp(iv.CreatedAt),
		Authority:                  iv.Authority,
		TransactionStatus:          iv.TransactionStatus,
	}
}

// domainResponse is GET /domains and GET /domains/{id}'s shape; Accounts
// and AssetDefinitions are populated only by the detail route.
type domainResponse struct {
	ID               string                    `json:"id"`
	Logo             *string                   `json:"logo"`
	Metadata         json.RawMessage           `json:"metadata"`
	Owner            *string                   `json:"owner,omitempty"`
	Accounts         []string                  `json:"accounts,omitempty"`
	AssetDefinitions []assetDefinitionResponse `json:"asset_definitions,omitempty"`
}

func newDomainResponse(d store.Domain) domainResponse {
	return domainResponse{ID: d.Name, Logo: d.Logo, Metadata: rawOrNull(d.Metadata)}
}

type accountResponse struct {
	ID       string          `json:"id"`
	Domain   string          `json:"domain"`
	Metadata json.RawMessage `json:"metadata"`
}

func newAccountResponse(a store.Account) accountResponse {
	return accountResponse{ID: store.AccountID{Signatory: a.Signatory, Domain: a.Domain}.String(), Domain: a.Domain, Metadata: rawOrNull(a.Metadata)}
}

// assetDefinitionResponse is GET /asset-definitions and
// GET /asset-definitions/{id}'s shape; Accounts is populated only by the
// detail route, per spec.md §6.
type assetDefinitionResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Domain   string          `json:"domain"`
	OwnedBy  string          `json:"owned_by"`
	Mintable string          `json:"mintable"`
	Metadata json.RawMessage `json:"metadata"`
	Accounts []string        `json:"accounts,omitempty"`
}

func newAssetDefinitionResponse(ad store.AssetDefinition) assetDefinitionResponse {
	return assetDefinitionResponse{
		ID:       ad.Name + "#" + ad.Domain,
		Name:     ad.Name,
		Domain:   ad.Domain,
		OwnedBy:  ad.OwnedBy.String(),
		Mintable: ad.Mintable,
		Metadata: rawOrNull(ad.Metadata),
	}
}

type assetResponse struct {
	ID           string       `json:"id"`
	AccountID    string       `json:"account_id"`
	DefinitionID string       `json:"definition_id"`
	Value        NumericValue `json:"value"`
}

func newAssetResponse(a store.AssetView) assetResponse {
	return assetResponse{
		ID:           a.ID,
		AccountID:    a.OwnedBy.String(),
		DefinitionID: a.DefinitionName + "#" + a.DefinitionDomain,
		Value:        numeric(a.Value),
	}
}

type nftResponse struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Domain  string          `json:"domain"`
	OwnedBy string          `json:"owned_by"`
	Content json.RawMessage `json:"content"`
}

func newNFTResponse(n store.NFTView) nftResponse {
	return nftResponse{ID: n.ID, Name: n.Name, Domain: n.Domain, OwnedBy: n.OwnedBy.String(), Content: rawOrNull(n.Content)}
}

type roleResponse struct {
	Name        string          `json:"name"`
	Permissions json.RawMessage `json:"permissions"`
	Grantees    []string        `json:"grantees,omitempty"`
}

func newRoleResponse(r store.RoleView) roleResponse {
	return roleResponse{Name: r.Name, Permissions: rawOrNull(r.Permissions)}
}

type peerResponse struct {
	URL       string `json:"url"`
	PublicKey string `json:"public_key"`
}

func newPeerResponse(p store.Peer) peerResponse {
	return peerResponse{URL: p.URL, PublicKey: p.PublicKey}
}
