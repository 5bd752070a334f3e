package reducer

import (
	"encoding/json"
	"fmt"
)

// taggedBox decodes a single-top-level-key JSON object, the convention used
// throughout the wire format for instruction payloads and the objects they
// carry (entity bodies, transfer targets, key-value object references).
type taggedBox struct {
	Kind string
	Body json.RawMessage
}

func decodeTaggedBox(raw json.RawMessage) (taggedBox, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return taggedBox{}, fmt.Errorf("%w: expected a JSON object: %v", ErrMalformed, err)
	}
	if len(obj) != 1 {
		return taggedBox{}, fmt.Errorf("%w: expected exactly one key, got %d", ErrMalformed, len(obj))
	}
	for k, v := range obj {
		return taggedBox{Kind: k, Body: v}, nil
	}
	panic("unreachable")
}

// objectEnvelope is the payload shape Register, Unregister, Mint and Burn
// share: a single Object naming the entity kind and carrying its body
// (Register, Mint, Burn) or id (Unregister).
type objectEnvelope struct {
	Object json.RawMessage `json:"object"`
}

type domainBody struct {
	ID       string          `json:"id"`
	Logo     *string         `json:"logo,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

type accountBody struct {
	ID       string          `json:"id"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

type assetDefinitionBody struct {
	ID       string          `json:"id"` // "<name>#<domain>"
	Mintable string          `json:"mintable"`
	OwnedBy  string          `json:"owned_by"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

type nftBody struct {
	ID      string          `json:"id"` // "<name>$<domain>"
	OwnedBy string          `json:"owned_by"`
	Content json.RawMessage `json:"content,omitempty"`
}

type peerBody struct {
	ID        string `json:"id"` // peer URL
	PublicKey string `json:"public_key"`
}

type roleBody struct {
	ID          string          `json:"id"`
	Permissions json.RawMessage `json:"permissions,omitempty"`
}

// mintBurnBody is the Asset body carried by Mint(Asset)/Burn(Asset).
type mintBurnBody struct {
	ID     string `json:"id"` // asset id
	Amount string `json:"amount"`
}

// transferEnvelope is the Transfer instruction's payload shape: an object
// naming the transferred entity kind (Asset/Nft/Domain/AssetDefinition),
// a source id and a destination id, whose meaning depends on that kind.
type transferEnvelope struct {
	SourceID      string          `json:"source_id"`
	Object        json.RawMessage `json:"object"`
	DestinationID string          `json:"destination_id"`
}

// transferAssetObject carries the amount moved when Object names "Asset".
type transferAssetObject struct {
	Amount string `json:"amount"`
}

// keyValueEnvelope is shared by SetKeyValue and RemoveKeyValue.
type keyValueEnvelope struct {
	ObjectID json.RawMessage `json:"object_id"`
	Key      string          `json:"key"`
	Value    json.RawMessage `json:"value,omitempty"`
}

// grantRevokeEnvelope is the Grant/Revoke payload shape. Only Object naming
// "Role" mutates world state; any other object kind (e.g. a raw permission
// token) is history-only.
type grantRevokeEnvelope struct {
	Object        json.RawMessage `json:"object"`
	DestinationID string          `json:"destination_id"`
}
