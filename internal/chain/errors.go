package chain

import "errors"

// Failure taxonomy for chain-client operations. All are recoverable by the
// ingest supervisor with backoff; None of them should ever be returned from
// code running inside an HTTP handler without being translated first.
var (
	ErrConnectRefused  = errors.New("chain: connect refused")
	ErrProtocolMismatch = errors.New("chain: protocol mismatch")
	ErrDecode          = errors.New("chain: decode error")
	ErrTimeout         = errors.New("chain: timeout")
	ErrPeerGone        = errors.New("chain: peer gone")
)
