// Package signer signs transactions for a secp256k1/blake160 lock.
package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ickb/orderbot/pkg/types"
	ckbtypes "github.com/nervosnetwork/ckb-sdk-go/v2/types"
)

// Secp256k1Blake160CodeHash is the type hash of the default lock on mainnet and testnet.
var Secp256k1Blake160CodeHash = common.HexToHash("0x9bd7e06f3ecf4be0f2fcd2188b23f1b9fcc88e5d4b65a8637b17723bbda3cce8")

// Secp256k1 holds the bot key. It keeps no per-transaction state.
type Secp256k1 struct {
	key  *ecdsa.PrivateKey
	lock types.Script
}

// New parses a hex private key and derives the matching lock script.
func New(privateKeyHex string, codeHash common.Hash, hashType types.HashType) (*Secp256k1, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	pub := crypto.CompressPubkey(&key.PublicKey)
	return &Secp256k1{
		key: key,
		lock: types.Script{
			CodeHash: codeHash,
			HashType: hashType,
			Args:     Blake160(pub),
		},
	}, nil
}

// Lock returns the lock script guarding the bot's cells.
func (s *Secp256k1) Lock() types.Script {
	return s.lock
}

// Sign signs the skeleton's signing message and places the signature in its lock witness.
func (s *Secp256k1) Sign(tx *types.TxSkeleton) (*types.Transaction, error) {
	if tx.SigningMessage == (common.Hash{}) {
		return nil, errors.New("skeleton has no signing message")
	}

	idx := int(tx.SigningWitness)
	if idx >= len(tx.Witnesses) {
		return nil, fmt.Errorf("signing witness %d out of range (%d witnesses)", idx, len(tx.Witnesses))
	}

	sig, err := crypto.Sign(tx.SigningMessage[:], s.key)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}

	witnesses := append([]hexutil.Bytes(nil), tx.Witnesses...)
	witnesses[idx] = WitnessArgs(sig)

	return tx.Transaction(witnesses), nil
}

// WitnessArgs encodes a molecule WitnessArgs table with only the lock field set.
func WitnessArgs(lock []byte) []byte {
	w := &ckbtypes.WitnessArgs{Lock: lock}
	return w.Serialize()
}
