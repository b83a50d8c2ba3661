package message

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocol is the root of every decoding failure of this package. Any
	// message failing with it must be discarded, never retried.
	ErrProtocol = errors.New("openbook protocol error")
	// ErrInvalidPrefix ...
	ErrInvalidPrefix = fmt.Errorf("%w: invalid message prefix", ErrProtocol)
	// ErrUnknownProtocol ...
	ErrUnknownProtocol = fmt.Errorf("%w: unknown protocol", ErrProtocol)
	// ErrMalformedLEB128 is returned when a varint is truncated or overflows
	// 64 bits.
	ErrMalformedLEB128 = fmt.Errorf("%w: malformed leb128", ErrProtocol)
	// ErrMalformedMessage is returned when a message is too short for its
	// fixed-width fields.
	ErrMalformedMessage = fmt.Errorf("%w: malformed message", ErrProtocol)
	// ErrInvalidTxid ...
	ErrInvalidTxid = fmt.Errorf("%w: txid must be 32 bytes hex encoded", ErrProtocol)
	// ErrInvalidIndex is returned when encoding an asset message for a
	// protocol that requires the index byte without providing it.
	ErrInvalidIndex = fmt.Errorf("%w: missing index for protocol", ErrProtocol)
)
