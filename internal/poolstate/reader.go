package poolstate

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"lp-arena-agent/internal/domain"
)

// StorageReader is the raw storage access the reader needs. *evm.Client
// satisfies it.
type StorageReader interface {
	StorageAt(ctx context.Context, contract common.Address, slot common.Hash) ([]byte, error)
}

// Reader fetches and decodes pool state from the manager's storage.
type Reader struct {
	client   StorageReader
	manager  common.Address
	baseSlot uint64
}

// NewReader builds a reader against one pool manager deployment.
func NewReader(client StorageReader, manager common.Address) *Reader {
	return &Reader{
		client:   client,
		manager:  manager,
		baseSlot: DefaultPoolsSlot,
	}
}

// State reads a pool's slot0 and liquidity words and decodes them. Any RPC
// failure or an uninitialized pool comes back as an error; callers treat that
// pool as unavailable for the cycle.
func (r *Reader) State(ctx context.Context, poolID common.Hash) (*domain.PoolState, error) {
	base := StateSlot(poolID, r.baseSlot)

	word, err := r.client.StorageAt(ctx, r.manager, base)
	if err != nil {
		return nil, fmt.Errorf("read slot0 for pool %s: %w", poolID.Hex(), err)
	}

	slot0, err := DecodeSlot0(word)
	if err != nil {
		return nil, fmt.Errorf("decode slot0 for pool %s: %w", poolID.Hex(), err)
	}
	if slot0.SqrtPriceX96.Sign() == 0 {
		return nil, fmt.Errorf("pool %s: %w", poolID.Hex(), ErrUninitialized)
	}

	liqWord, err := r.client.StorageAt(ctx, r.manager, OffsetSlot(base, LiquidityOffset))
	if err != nil {
		return nil, fmt.Errorf("read liquidity for pool %s: %w", poolID.Hex(), err)
	}

	return &domain.PoolState{
		PoolID:       poolID.Hex(),
		SqrtPriceX96: slot0.SqrtPriceX96,
		Tick:         slot0.Tick,
		ProtocolFee:  slot0.ProtocolFee,
		LPFee:        slot0.LPFee,
		Liquidity:    new(big.Int).SetBytes(liqWord),
		FetchedAt:    time.Now().UTC(),
	}, nil
}
