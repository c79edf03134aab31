package signer

import (
	ckbblake2b "github.com/nervosnetwork/ckb-sdk-go/v2/crypto/blake2b"
)

const hashSize = 32

// Hash is blake2b-256 with the "ckb-default-hash" personalization.
func Hash(data []byte) [hashSize]byte {
	var out [hashSize]byte
	copy(out[:], ckbblake2b.Blake256(data))
	return out
}

// Blake160 is the first 20 bytes of Hash.
func Blake160(data []byte) []byte {
	return ckbblake2b.Blake160(data)
}
