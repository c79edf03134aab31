package types

import "github.com/holiman/uint256"

// Asset names one of the two traded assets.
type Asset string

// The bot trades exactly two assets.
const (
	AssetBase  Asset = "base"
	AssetQuote Asset = "quote"
)

// AssetBalance holds the totals of a single asset.
// Available = Total - Locked and is never negative.
type AssetBalance struct {
	Asset     Asset
	Total     uint256.Int
	Available uint256.Int
	Locked    uint256.Int
}

// AssetPools is what the funding engine may spend and how it should price fees.
type AssetPools struct {
	Lock       Script
	TokenType  Script
	Capacities []Cell
	Tokens     []Cell
	FeeRate    uint64
	Base       AssetBalance
	Quote      AssetBalance
}
