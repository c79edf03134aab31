// Package stale picks the orders to cancel or melt.
package stale

import "github.com/ickb/orderbot/pkg/types"

// Select returns the longest prefix of orders (sorted oldest first) that are
// still matchable and at least threshold blocks old at tip. The scan stops at
// the first order that does not qualify.
func Select(orders []types.Order, tip, threshold uint64) []types.Order {
	n := 0
	for _, o := range orders {
		if !o.Info.IsMatchable || Age(o, tip) < threshold {
			break
		}
		n++
	}
	return orders[:n:n]
}

// Age is the number of blocks between the order's block and tip, zero if the order is ahead of tip.
func Age(o types.Order, tip uint64) uint64 {
	block := uint64(o.BlockNumber)
	if block > tip {
		return 0
	}
	return tip - block
}

// Completed returns the orders that can no longer be matched.
func Completed(orders []types.Order) []types.Order {
	var out []types.Order
	for _, o := range orders {
		if !o.Info.IsMatchable {
			out = append(out, o)
		}
	}
	return out
}

// Open returns the orders that are still matchable, in their original order.
func Open(orders []types.Order) []types.Order {
	var out []types.Order
	for _, o := range orders {
		if o.Info.IsMatchable {
			out = append(out, o)
		}
	}
	return out
}
