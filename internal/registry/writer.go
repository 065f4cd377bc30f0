package registry

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"lp-arena-agent/internal/evm"
)

// Writer submits arena transactions: simulate the call first, send it, then
// wait for inclusion and check the receipt.
type Writer struct {
	client    *evm.Client
	signer    *evm.Signer
	arena     *bind.BoundContract
	arenaABI  abi.ABI
	arenaAddr common.Address
}

// NewWriter builds the write side against one arena deployment.
func NewWriter(client *evm.Client, signer *evm.Signer, arenaAddr common.Address) *Writer {
	backend := client.Raw()
	parsed := ArenaABI()
	return &Writer{
		client:    client,
		signer:    signer,
		arena:     bind.NewBoundContract(arenaAddr, parsed, backend, backend, backend),
		arenaABI:  parsed,
		arenaAddr: arenaAddr,
	}
}

var _ BattleWriter = (*Writer)(nil)

// ResolveBattle settles an expired battle on chain.
func (w *Writer) ResolveBattle(ctx context.Context, id uint64) (string, error) {
	return w.submit(ctx, "resolveBattle", new(big.Int).SetUint64(id))
}

// UpdateBattleStatus refreshes a running battle's accrued counters.
func (w *Writer) UpdateBattleStatus(ctx context.Context, id uint64) (string, error) {
	return w.submit(ctx, "updateBattleStatus", new(big.Int).SetUint64(id))
}

// submit runs the full write path for one arena method.
func (w *Writer) submit(ctx context.Context, method string, args ...interface{}) (string, error) {
	data, err := w.arenaABI.Pack(method, args...)
	if err != nil {
		return "", fmt.Errorf("pack %s: %w", method, err)
	}

	// Preflight: a call that would revert fails here without spending gas.
	from := w.signer.Address()
	if _, err := w.client.CallContract(ctx, ethereum.CallMsg{
		From: from,
		To:   &w.arenaAddr,
		Data: data,
	}); err != nil {
		return "", fmt.Errorf("preflight %s: %w", method, err)
	}

	opts, err := w.signer.TransactOpts(w.client.ChainID())
	if err != nil {
		return "", err
	}
	opts.Context = ctx

	tx, err := w.arena.Transact(opts, method, args...)
	if err != nil {
		return "", fmt.Errorf("send %s: %w", method, err)
	}

	if _, err := w.client.WaitMined(ctx, tx); err != nil {
		return tx.Hash().Hex(), err
	}
	return tx.Hash().Hex(), nil
}
