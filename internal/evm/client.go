// Package evm wraps the Ethereum JSON-RPC client with the call discipline the
// agent needs: a bounded timeout on every read and a wait-mined timeout on
// writes.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

const (
	// DefaultCallTimeout bounds every read call.
	DefaultCallTimeout = 8 * time.Second
	// DefaultMinedTimeout bounds waiting for a transaction receipt.
	DefaultMinedTimeout = 3 * time.Minute
)

// Client is a thin ethclient wrapper. All reads run under a derived context
// with the configured per-call timeout.
type Client struct {
	eth          *ethclient.Client
	chainID      *big.Int
	callTimeout  time.Duration
	minedTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithCallTimeout sets the per-read timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// WithMinedTimeout sets how long to wait for transaction inclusion.
func WithMinedTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.minedTimeout = d
		}
	}
}

// Dial connects to an RPC endpoint and verifies it by fetching the chain id.
func Dial(ctx context.Context, endpoint string, opts ...Option) (*Client, error) {
	c := &Client{
		callTimeout:  DefaultCallTimeout,
		minedTimeout: DefaultMinedTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	eth, err := ethclient.DialContext(dialCtx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	idCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	chainID, err := eth.ChainID(idCtx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}

	c.eth = eth
	c.chainID = chainID
	return c, nil
}

// Close releases the underlying connection.
func (c *Client) Close() {
	c.eth.Close()
}

// ChainID returns the connected chain's id.
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// Raw exposes the underlying ethclient for bind.BoundContract wiring.
func (c *Client) Raw() *ethclient.Client {
	return c.eth
}

// callCtx derives the bounded read context.
func (c *Client) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.callTimeout)
}

// StorageAt reads one raw storage word from a contract.
func (c *Client) StorageAt(ctx context.Context, contract common.Address, slot common.Hash) ([]byte, error) {
	callCtx, cancel := c.callCtx(ctx)
	defer cancel()
	return c.eth.StorageAt(callCtx, contract, slot, nil)
}

// CallContract executes a read-only call against the latest block.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	callCtx, cancel := c.callCtx(ctx)
	defer cancel()
	return c.eth.CallContract(callCtx, msg, nil)
}

// WaitMined blocks until the transaction is included, then checks its status.
func (c *Client) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.minedTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, c.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("wait mined %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("transaction %s reverted", tx.Hash().Hex())
	}
	return receipt, nil
}
