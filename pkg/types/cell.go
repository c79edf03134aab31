package types

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// HashType selects how a script's code hash is matched against cell deps.
type HashType string

// Known hash types.
const (
	HashTypeData  HashType = "data"
	HashTypeType  HashType = "type"
	HashTypeData1 HashType = "data1"
	HashTypeData2 HashType = "data2"
)

// Valid reports whether h is a known hash type.
func (h HashType) Valid() bool {
	switch h {
	case HashTypeData, HashTypeType, HashTypeData1, HashTypeData2:
		return true
	}
	return false
}

// Script is a lock or type predicate.
type Script struct {
	CodeHash common.Hash   `json:"code_hash"`
	HashType HashType      `json:"hash_type"`
	Args     hexutil.Bytes `json:"args"`
}

// Equal reports whether both scripts are identical.
func (s Script) Equal(other Script) bool {
	return s.CodeHash == other.CodeHash &&
		s.HashType == other.HashType &&
		bytes.Equal(s.Args, other.Args)
}

// HasPrefix reports whether s matches prefix by code hash, hash type and args prefix.
func (s Script) HasPrefix(prefix Script) bool {
	return s.CodeHash == prefix.CodeHash &&
		s.HashType == prefix.HashType &&
		bytes.HasPrefix(s.Args, prefix.Args)
}

// OutPoint identifies a cell by the transaction that produced it and the output index.
type OutPoint struct {
	TxHash common.Hash  `json:"tx_hash"`
	Index  hexutil.Uint `json:"index"`
}

func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxHash.Hex(), uint(o.Index))
}

// Less orders outpoints by tx hash, then index.
func (o OutPoint) Less(other OutPoint) bool {
	if c := bytes.Compare(o.TxHash[:], other.TxHash[:]); c != 0 {
		return c < 0
	}
	return o.Index < other.Index
}

// CellOutput is the value-bearing part of a cell.
type CellOutput struct {
	Capacity hexutil.Uint64 `json:"capacity"`
	Lock     Script         `json:"lock"`
	Type     *Script        `json:"type"`
}

// Cell is a live UTXO as reported by the ledger indexer.
type Cell struct {
	OutPoint    OutPoint       `json:"out_point"`
	Output      CellOutput     `json:"output"`
	Data        hexutil.Bytes  `json:"output_data"`
	BlockNumber hexutil.Uint64 `json:"block_number"`
}

// Capacity returns the cell capacity in shannons.
func (c Cell) Capacity() uint64 {
	return uint64(c.Output.Capacity)
}

// TxOutputs holds the outputs of a transaction, used to resolve order provenance.
type TxOutputs struct {
	Outputs     []CellOutput    `json:"outputs"`
	OutputsData []hexutil.Bytes `json:"outputs_data"`
}

// Header is the subset of a block header the bot needs.
type Header struct {
	Number    hexutil.Uint64 `json:"number"`
	Hash      common.Hash    `json:"hash"`
	Epoch     hexutil.Uint64 `json:"epoch"`
	Timestamp hexutil.Uint64 `json:"timestamp"`
	DAO       hexutil.Bytes  `json:"dao"`
}
