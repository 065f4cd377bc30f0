// Package poolstate reads pool state straight out of the pool manager's
// storage. The manager keeps per-pool state in a mapping keyed by pool id;
// slot0 packs sqrt price, tick and both fee fields into a single word, and
// liquidity sits a fixed number of words later.
package poolstate

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// DefaultPoolsSlot is the declared slot of the manager's pools mapping.
	DefaultPoolsSlot uint64 = 6
	// LiquidityOffset is the word offset of the liquidity field inside the
	// per-pool state struct.
	LiquidityOffset uint64 = 3
)

// ErrUninitialized marks a pool whose slot0 reads back all zero.
var ErrUninitialized = errors.New("pool not initialized")

// Bit layout of the packed slot0 word, low bits first.
const (
	sqrtPriceBits   = 160
	tickBits        = 24
	protocolFeeBits = 24
	lpFeeBits       = 24
)

var (
	sqrtPriceMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), sqrtPriceBits), big.NewInt(1))
	field24Mask   = big.NewInt(1<<24 - 1)
)

// StateSlot computes the storage slot of a pool's state struct:
// keccak256(poolID .. baseSlot), both as 32-byte words.
func StateSlot(poolID common.Hash, baseSlot uint64) common.Hash {
	slotWord := common.LeftPadBytes(new(big.Int).SetUint64(baseSlot).Bytes(), 32)
	return common.BytesToHash(crypto.Keccak256(poolID.Bytes(), slotWord))
}

// OffsetSlot returns the slot a fixed number of words past base.
func OffsetSlot(base common.Hash, offset uint64) common.Hash {
	n := new(big.Int).SetBytes(base.Bytes())
	n.Add(n, new(big.Int).SetUint64(offset))
	return common.BigToHash(n)
}

// Slot0 is the unpacked contents of the pool's first state word.
type Slot0 struct {
	SqrtPriceX96 *big.Int
	Tick         int32
	ProtocolFee  uint32
	LPFee        uint32
}

// DecodeSlot0 unpacks one 32-byte storage word. The sqrt price occupies the
// low 160 bits; the tick, protocol fee and LP fee follow as 24-bit fields.
func DecodeSlot0(word []byte) (Slot0, error) {
	if len(word) != 32 {
		return Slot0{}, fmt.Errorf("slot0 word must be 32 bytes, got %d", len(word))
	}

	w := new(big.Int).SetBytes(word)

	sqrtPrice := new(big.Int).And(w, sqrtPriceMask)

	rawTick := new(big.Int).And(new(big.Int).Rsh(w, sqrtPriceBits), field24Mask).Int64()
	// Two's-complement recovery for the signed 24-bit tick.
	if rawTick > (1<<23 - 1) {
		rawTick -= 1 << 24
	}

	protocolFee := new(big.Int).And(new(big.Int).Rsh(w, sqrtPriceBits+tickBits), field24Mask).Uint64()
	lpFee := new(big.Int).And(new(big.Int).Rsh(w, sqrtPriceBits+tickBits+protocolFeeBits), field24Mask).Uint64()

	return Slot0{
		SqrtPriceX96: sqrtPrice,
		Tick:         int32(rawTick),
		ProtocolFee:  uint32(protocolFee),
		LPFee:        uint32(lpFee),
	}, nil
}

// EncodeSlot0 packs slot0 fields back into a 32-byte word. Used by tests and
// fakes; the inverse of DecodeSlot0.
func EncodeSlot0(s Slot0) []byte {
	w := new(big.Int).Set(s.SqrtPriceX96)

	rawTick := int64(s.Tick)
	if rawTick < 0 {
		rawTick += 1 << 24
	}
	w.Or(w, new(big.Int).Lsh(big.NewInt(rawTick), sqrtPriceBits))
	w.Or(w, new(big.Int).Lsh(new(big.Int).SetUint64(uint64(s.ProtocolFee)), sqrtPriceBits+tickBits))
	w.Or(w, new(big.Int).Lsh(new(big.Int).SetUint64(uint64(s.LPFee)), sqrtPriceBits+tickBits+protocolFeeBits))

	return common.LeftPadBytes(w.Bytes(), 32)
}
