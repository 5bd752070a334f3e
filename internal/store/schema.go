package store

// schema contains the full set of table and view definitions. Tables hold
// the reducer's normalized world-state projection; the v_* views expose the
// derived, denormalized shapes the HTTP surface and the instruction feed
// read from.
const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS blocks (
    height             INTEGER PRIMARY KEY,
    hash               TEXT NOT NULL UNIQUE,
    prev_block_hash    TEXT,
    transactions_hash  TEXT,
    created_at         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS domains (
    name     TEXT PRIMARY KEY,
    logo     TEXT,
    metadata TEXT NOT NULL DEFAULT '{}' CHECK (json_valid(metadata))
);

CREATE TABLE IF NOT EXISTS accounts (
    signatory TEXT NOT NULL,
    domain    TEXT NOT NULL REFERENCES domains(name) ON DELETE CASCADE,
    metadata  TEXT NOT NULL DEFAULT '{}' CHECK (json_valid(metadata)),
    PRIMARY KEY (signatory, domain)
);

CREATE TABLE IF NOT EXISTS domain_owners (
    domain             TEXT NOT NULL REFERENCES domains(name) ON DELETE CASCADE,
    account_signatory  TEXT NOT NULL,
    account_domain     TEXT NOT NULL,
    PRIMARY KEY (domain),
    FOREIGN KEY (account_signatory, account_domain) REFERENCES accounts(signatory, domain)
);

CREATE TABLE IF NOT EXISTS asset_definitions (
    name               TEXT NOT NULL,
    domain             TEXT NOT NULL REFERENCES domains(name) ON DELETE CASCADE,
    owned_by_signatory TEXT NOT NULL,
    owned_by_domain    TEXT NOT NULL,
    mintable           TEXT NOT NULL CHECK (mintable IN ('Once','Not','Infinitely')),
    metadata           TEXT NOT NULL DEFAULT '{}' CHECK (json_valid(metadata)),
    PRIMARY KEY (name, domain),
    FOREIGN KEY (owned_by_signatory, owned_by_domain) REFERENCES accounts(signatory, domain)
);

CREATE TABLE IF NOT EXISTS assets (
    definition_name    TEXT NOT NULL,
    definition_domain  TEXT NOT NULL,
    owned_by_signatory TEXT NOT NULL,
    owned_by_domain    TEXT NOT NULL,
    value              TEXT NOT NULL,
    PRIMARY KEY (definition_name, definition_domain, owned_by_signatory, owned_by_domain),
    FOREIGN KEY (definition_name, definition_domain) REFERENCES asset_definitions(name, domain),
    FOREIGN KEY (owned_by_signatory, owned_by_domain) REFERENCES accounts(signatory, domain)
);

CREATE TABLE IF NOT EXISTS nfts (
    name               TEXT NOT NULL,
    domain             TEXT NOT NULL REFERENCES domains(name) ON DELETE CASCADE,
    owned_by_signatory TEXT NOT NULL,
    owned_by_domain    TEXT NOT NULL,
    content            TEXT NOT NULL DEFAULT '{}' CHECK (json_valid(content)),
    PRIMARY KEY (name, domain),
    FOREIGN KEY (owned_by_signatory, owned_by_domain) REFERENCES accounts(signatory, domain)
);

CREATE TABLE IF NOT EXISTS roles (
    name        TEXT PRIMARY KEY,
    permissions TEXT NOT NULL DEFAULT '[]' CHECK (json_valid(permissions))
);

CREATE TABLE IF NOT EXISTS role_grants (
    role              TEXT NOT NULL REFERENCES roles(name) ON DELETE CASCADE,
    account_signatory TEXT NOT NULL,
    account_domain    TEXT NOT NULL,
    PRIMARY KEY (role, account_signatory, account_domain)
);

CREATE TABLE IF NOT EXISTS peers (
    url        TEXT PRIMARY KEY,
    public_key TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    hash                TEXT PRIMARY KEY,
    block               INTEGER NOT NULL REFERENCES blocks(height) ON DELETE CASCADE,
    position            INTEGER NOT NULL,
    created_at          TEXT NOT NULL,
    authority_signatory TEXT NOT NULL,
    authority_domain    TEXT NOT NULL,
    signature           TEXT NOT NULL,
    nonce               INTEGER,
    metadata            TEXT NOT NULL DEFAULT '{}' CHECK (json_valid(metadata)),
    time_to_live_ms     INTEGER,
    executable          TEXT NOT NULL CHECK (executable IN ('Instructions','WASM')),
    wasm_size           INTEGER,
    error               TEXT CHECK (error IS NULL OR json_valid(error))
);
CREATE INDEX IF NOT EXISTS idx_transactions_block ON transactions(block, position);
CREATE INDEX IF NOT EXISTS idx_transactions_authority ON transactions(authority_signatory, authority_domain);

CREATE TABLE IF NOT EXISTS instructions (
    transaction_hash TEXT NOT NULL REFERENCES transactions(hash) ON DELETE CASCADE,
    position         INTEGER NOT NULL,
    kind             TEXT NOT NULL,
    value            TEXT NOT NULL CHECK (json_valid(value)),
    PRIMARY KEY (transaction_hash, position)
);
CREATE INDEX IF NOT EXISTS idx_instructions_kind ON instructions(kind);

-- v_transactions adds the derived authority id and commit/reject status.
CREATE VIEW IF NOT EXISTS v_transactions AS
SELECT
    t.hash,
    t.block,
    t.position,
    t.created_at,
    t.authority_signatory || '@' || t.authority_domain AS authority,
    t.signature,
    t.nonce,
    t.metadata,
    t.time_to_live_ms,
    t.executable,
    t.error,
    CASE WHEN t.error IS NULL THEN 'committed' ELSE 'rejected' END AS status
FROM transactions t;

-- v_instructions explodes each transaction's instruction, by its single
-- top-level JSON key, into a row carrying the parent transaction's context.
CREATE VIEW IF NOT EXISTS v_instructions AS
SELECT
    i.transaction_hash,
    i.position,
    i.kind,
    i.value AS payload,
    t.block,
    t.created_at,
    t.authority_signatory || '@' || t.authority_domain AS authority,
    CASE WHEN t.error IS NULL THEN 'committed' ELSE 'rejected' END AS transaction_status
FROM instructions i
JOIN transactions t ON t.hash = i.transaction_hash;

-- v_assets derives the composite asset id: same-domain assets omit the
-- definition's domain segment, cross-domain assets include it.
CREATE VIEW IF NOT EXISTS v_assets AS
SELECT
    a.definition_name,
    a.definition_domain,
    a.owned_by_signatory,
    a.owned_by_domain,
    a.value,
    CASE
        WHEN a.definition_domain = a.owned_by_domain
            THEN a.definition_name || '##' || a.owned_by_signatory || '@' || a.owned_by_domain
        ELSE a.definition_name || '#' || a.definition_domain || '#' || a.owned_by_signatory || '@' || a.owned_by_domain
    END AS id
FROM assets a;

CREATE VIEW IF NOT EXISTS v_nfts AS
SELECT
    n.name,
    n.domain,
    n.owned_by_signatory,
    n.owned_by_domain,
    n.content,
    n.name || '$' || n.domain AS id,
    n.owned_by_signatory || '@' || n.owned_by_domain AS owned_by
FROM nfts n;
`
