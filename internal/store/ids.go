package store

import "strings"

// AccountID identifies an account by its signatory (public key or multihash)
// and domain, rendered "<signatory>@<domain>".
type AccountID struct {
	Signatory string
	Domain    string
}

func (id AccountID) String() string { return id.Signatory + "@" + id.Domain }

// ParseAccountID parses "<signatory>@<domain>". The signatory never
// contains '@', so splitting on the first occurrence is unambiguous.
func ParseAccountID(raw string) (AccountID, error) {
	i := strings.IndexByte(raw, '@')
	if i <= 0 || i == len(raw)-1 {
		return AccountID{}, &ValidationError{Field: "id", Message: "account id must be \"<signatory>@<domain>\""}
	}
	return AccountID{Signatory: raw[:i], Domain: raw[i+1:]}, nil
}

// AssetID identifies an asset by its definition and owning account. When
// the definition and owner share a domain, the definition's domain segment
// is omitted on the wire.
type AssetID struct {
	DefinitionName   string
	DefinitionDomain string
	OwnedBy          AccountID
}

// String renders the id in same-domain ("name##sig@domain") or
// cross-domain ("name#def_domain#sig@owner_domain") form.
func (id AssetID) String() string {
	if id.DefinitionDomain == id.OwnedBy.Domain {
		return id.DefinitionName + "##" + id.OwnedBy.String()
	}
	return id.DefinitionName + "#" + id.DefinitionDomain + "#" + id.OwnedBy.String()
}

// ParseAssetID parses either composite form. Both forms carry exactly two
// '#' separators, so splitting on '#' always yields three parts; the
// same-domain form has an empty middle segment ("rose##alice@wonderland"),
// the cross-domain form names the definition's domain there
// ("rose#def_domain#alice@owner_domain").
func ParseAssetID(raw string) (AssetID, error) {
	invalid := &ValidationError{Field: "id", Message: "asset id must be \"<name>##<signatory>@<domain>\" or \"<name>#<def_domain>#<signatory>@<owner_domain>\""}

	parts := strings.Split(raw, "#")
	if len(parts) != 3 || parts[0] == "" {
		return AssetID{}, invalid
	}

	account, err := ParseAccountID(parts[2])
	if err != nil {
		return AssetID{}, invalid
	}

	if parts[1] == "" {
		return AssetID{DefinitionName: parts[0], DefinitionDomain: account.Domain, OwnedBy: account}, nil
	}
	return AssetID{DefinitionName: parts[0], DefinitionDomain: parts[1], OwnedBy: account}, nil
}

// NftID identifies an NFT by name and domain, rendered "<name>$<domain>".
type NftID struct {
	Name   string
	Domain string
}

func (id NftID) String() string { return id.Name + "$" + id.Domain }

// ParseNftID parses "<name>$<domain>".
func ParseNftID(raw string) (NftID, error) {
	i := strings.IndexByte(raw, '$')
	if i <= 0 || i == len(raw)-1 {
		return NftID{}, &ValidationError{Field: "id", Message: "nft id must be \"<name>$<domain>\""}
	}
	return NftID{Name: raw[:i], Domain: raw[i+1:]}, nil
}
