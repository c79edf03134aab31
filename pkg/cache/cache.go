// Package cache keeps committed transaction outputs in memory.
package cache

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ickb/orderbot/pkg/types"
)

// Cache maps transaction hashes to their outputs.
// Committed outputs never change, so entries have no TTL.
type Cache interface {
	// Get returns the outputs of hash, if cached.
	Get(hash common.Hash) (types.TxOutputs, bool)

	// Set stores the outputs of hash. Admission may be refused.
	Set(hash common.Hash, outputs types.TxOutputs) bool

	// Delete evicts hash.
	Delete(hash common.Hash)

	// Clear evicts everything.
	Clear()

	// Close releases resources.
	Close()
}
