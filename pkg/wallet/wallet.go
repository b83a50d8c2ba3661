// Package wallet holds the stateless helpers used to compose, size and
// inspect bitcoin PSBTs. It never deals with private keys: signing is up to
// the owners of the coins.
package wallet

import "errors"

var (
	// ErrNullNetwork ...
	ErrNullNetwork = errors.New("network params are null")
	// ErrNullPsbt ...
	ErrNullPsbt = errors.New("psbt must not be null")
	// ErrInputIndexOutOfRange ...
	ErrInputIndexOutOfRange = errors.New("input index out of range")
	// ErrPrevoutNotFound is returned when the previous transaction of an
	// input does not have the referenced output.
	ErrPrevoutNotFound = errors.New("previous output not found")
	// ErrMissingSignature is returned when an input that is expected to be
	// signed carries no partial signature.
	ErrMissingSignature = errors.New("missing partial signature")
	// ErrMissingPubKey is returned when the public key of the signer cannot
	// be found in the witness or the script sig of an input.
	ErrMissingPubKey = errors.New("missing public key")
	// ErrUnknownAddress is returned for output scripts that do not encode a
	// standard address.
	ErrUnknownAddress = errors.New("script does not encode a standard address")
)
