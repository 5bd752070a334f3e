package store

import "time"

// Domain is a named grouping of accounts and the asset definitions they own.
type Domain struct {
	Name     string
	Logo     *string
	Metadata []byte // JSON object
}

// Account is a signatory registered within a domain.
type Account struct {
	Signatory string
	Domain    string
	Metadata  []byte
}

// AssetDefinition describes the shape of a fungible asset kind within a domain.
type AssetDefinition struct {
	Name        string
	Domain      string
	OwnedBy     AccountID
	Mintable    string // "Once" | "Not" | "Infinitely"
	Metadata    []byte
}

// Asset is one account's holding of an asset definition, keyed by the
// (definition, owner) pair — not by a standalone id.
type Asset struct {
	DefinitionName   string
	DefinitionDomain string
	OwnedBy          AccountID
	Value            string // decimal.Decimal rendered as a canonical string
}

// NFT is a single non-fungible token within a domain.
type NFT struct {
	Name    string
	Domain  string
	OwnedBy AccountID
	Content []byte
}

// Role names a reusable permission set.
type Role struct {
	Name        string
	Permissions []byte // JSON array
}

// RoleGrant associates a role with an account.
type RoleGrant struct {
	Role    string
	Account AccountID
}

// Peer is a member of the network's peer set.
type Peer struct {
	URL       string
	PublicKey string
}

// Block is the header row recorded for each committed block.
type Block struct {
	Height           uint64
	Hash             string
	PrevBlockHash    *string
	TransactionsHash *string
	CreatedAt        time.Time
}

// Transaction is a committed or rejected transaction within a block.
type Transaction struct {
	Hash            string
	Block           uint64
	Position        int
	CreatedAt       time.Time
	Authority       AccountID
	Signature       string
	Nonce           *uint32
	Metadata        []byte
	TimeToLiveMs    *uint64
	Executable      string // "Instructions" | "WASM"
	WasmSize        *int
	Error           []byte // nil when committed
}

// Instruction is one element of a transaction's instruction list, stored by
// its single top-level JSON key (Kind) and full JSON value (Payload).
type Instruction struct {
	TransactionHash string
	Position        int
	Kind            string
	Payload         []byte
}
