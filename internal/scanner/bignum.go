package scanner

import (
	"math/big"
	"sync"
)

// Pooled big numbers for the evaluation hot path: every cycle touches
// several transient big.Int values per pass.

var bigIntPool = sync.Pool{
	New: func() interface{} {
		return new(big.Int)
	},
}

func AcquireBigInt() *big.Int {
	bi := bigIntPool.Get().(*big.Int)
	bi.SetInt64(0)
	return bi
}

func ReleaseBigInt(bi *big.Int) {
	if bi == nil {
		return
	}
	bigIntPool.Put(bi)
}
