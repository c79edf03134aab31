package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// CellDep references a cell whose data is code or a dep group.
type CellDep struct {
	OutPoint OutPoint `json:"out_point"`
	DepType  string   `json:"dep_type"`
}

// CellInput spends a previous output.
type CellInput struct {
	Since          hexutil.Uint64 `json:"since"`
	PreviousOutput OutPoint       `json:"previous_output"`
}

// Transaction is the wire form sent to the ledger.
type Transaction struct {
	Version     hexutil.Uint    `json:"version"`
	CellDeps    []CellDep       `json:"cell_deps"`
	HeaderDeps  []common.Hash   `json:"header_deps"`
	Inputs      []CellInput     `json:"inputs"`
	Outputs     []CellOutput    `json:"outputs"`
	OutputsData []hexutil.Bytes `json:"outputs_data"`
	Witnesses   []hexutil.Bytes `json:"witnesses"`
}

// TxSkeleton is a transaction under construction.
// The json-tagged part travels to the engine sidecar; the bookkeeping stays local.
type TxSkeleton struct {
	CellDeps    []CellDep       `json:"cell_deps"`
	HeaderDeps  []common.Hash   `json:"header_deps"`
	Inputs      []Cell          `json:"inputs"`
	Outputs     []CellOutput    `json:"outputs"`
	OutputsData []hexutil.Bytes `json:"outputs_data"`
	Witnesses   []hexutil.Bytes `json:"witnesses"`

	// Filled in by the funding engine.
	Fee            hexutil.Uint64 `json:"fee"`
	FeeRate        hexutil.Uint64 `json:"fee_rate"`
	SigningMessage common.Hash    `json:"signing_message"`
	SigningWitness hexutil.Uint   `json:"signing_witness"`

	Melted       []OutPoint   `json:"-"`
	Cancelled    []OutPoint   `json:"-"`
	NewOrder     *OrderIntent `json:"-"`
	Consolidated bool         `json:"-"`
}

// NewTxSkeleton returns an empty skeleton.
func NewTxSkeleton() *TxSkeleton {
	return &TxSkeleton{}
}

// Clone returns a deep copy of the slices and bookkeeping.
func (tx *TxSkeleton) Clone() *TxSkeleton {
	out := *tx
	out.CellDeps = append([]CellDep(nil), tx.CellDeps...)
	out.HeaderDeps = append([]common.Hash(nil), tx.HeaderDeps...)
	out.Inputs = append([]Cell(nil), tx.Inputs...)
	out.Outputs = append([]CellOutput(nil), tx.Outputs...)
	out.OutputsData = append([]hexutil.Bytes(nil), tx.OutputsData...)
	out.Witnesses = append([]hexutil.Bytes(nil), tx.Witnesses...)
	out.Melted = append([]OutPoint(nil), tx.Melted...)
	out.Cancelled = append([]OutPoint(nil), tx.Cancelled...)
	if tx.NewOrder != nil {
		intent := *tx.NewOrder
		out.NewOrder = &intent
	}
	return &out
}

// CarryBookkeeping copies the local bookkeeping of from onto tx.
// Used after a round trip through an engine that only sees the wire fields.
func (tx *TxSkeleton) CarryBookkeeping(from *TxSkeleton) *TxSkeleton {
	src := from.Clone()
	tx.Melted = src.Melted
	tx.Cancelled = src.Cancelled
	tx.NewOrder = src.NewOrder
	tx.Consolidated = src.Consolidated
	return tx
}

// Consumes reports whether the skeleton spends the given outpoint.
func (tx *TxSkeleton) Consumes(op OutPoint) bool {
	for _, in := range tx.Inputs {
		if in.OutPoint == op {
			return true
		}
	}
	for _, m := range tx.Melted {
		if m == op {
			return true
		}
	}
	for _, c := range tx.Cancelled {
		if c == op {
			return true
		}
	}
	return false
}

// Cancellations counts the orders the skeleton destroys, melted or cancelled.
func (tx *TxSkeleton) Cancellations() int {
	return len(tx.Melted) + len(tx.Cancelled)
}

// IsEmpty reports whether nothing is planned.
func (tx *TxSkeleton) IsEmpty() bool {
	return tx.Cancellations() == 0 && tx.NewOrder == nil && !tx.Consolidated
}

// Transaction converts the skeleton into its wire form with the given witnesses.
func (tx *TxSkeleton) Transaction(witnesses []hexutil.Bytes) *Transaction {
	inputs := make([]CellInput, len(tx.Inputs))
	for i, c := range tx.Inputs {
		inputs[i] = CellInput{PreviousOutput: c.OutPoint}
	}

	return &Transaction{
		Version:     0,
		CellDeps:    tx.CellDeps,
		HeaderDeps:  tx.HeaderDeps,
		Inputs:      inputs,
		Outputs:     tx.Outputs,
		OutputsData: tx.OutputsData,
		Witnesses:   witnesses,
	}
}
