// Package chains is the static registry of EVM chains the agent can bridge
// between. The arena itself lives on Arbitrum One.
package chains

import "github.com/ethereum/go-ethereum/common"

// ArenaChainID is the destination chain for every entry route.
const ArenaChainID uint64 = 42161

// Chain describes one supported EVM chain and its native-USDC bridge wiring.
type Chain struct {
	ID                 uint64
	Name               string
	USDC               common.Address // canonical (Circle-issued) USDC
	BridgeDomain       uint32         // native bridge domain id
	TokenMessenger     common.Address // burn side of the native bridge
	MessageTransmitter common.Address // mint side of the native bridge
}

// Registered chains. Addresses are the canonical mainnet deployments.
var registry = map[uint64]Chain{
	1: {
		ID:                 1,
		Name:               "ethereum",
		USDC:               common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		BridgeDomain:       0,
		TokenMessenger:     common.HexToAddress("0xBd3fa81B58Ba92a82136038B25aDec7066af3155"),
		MessageTransmitter: common.HexToAddress("0x0a992d191DEeC32aFe36203Ad87D7d289a738F81"),
	},
	10: {
		ID:                 10,
		Name:               "optimism",
		USDC:               common.HexToAddress("0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85"),
		BridgeDomain:       2,
		TokenMessenger:     common.HexToAddress("0x2B4069517957735bE00ceE0fadAE88a26365528f"),
		MessageTransmitter: common.HexToAddress("0x4D41f22c5a0e5c74090899E5a8Fb597a8842b3e8"),
	},
	137: {
		ID:                 137,
		Name:               "polygon",
		USDC:               common.HexToAddress("0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359"),
		BridgeDomain:       7,
		TokenMessenger:     common.HexToAddress("0x9daF8c91AEFAE50b9c0E69629D3F6Ca40cA3B3FE"),
		MessageTransmitter: common.HexToAddress("0xF3be9355363857F3e001be68856A2f96b4C39Ba9"),
	},
	8453: {
		ID:                 8453,
		Name:               "base",
		USDC:               common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
		BridgeDomain:       6,
		TokenMessenger:     common.HexToAddress("0x1682Ae6375C4E4A97e4B583BC394c861A46D8962"),
		MessageTransmitter: common.HexToAddress("0xAD09780d193884d503182aD4588450C416D6F9D4"),
	},
	42161: {
		ID:                 42161,
		Name:               "arbitrum",
		USDC:               common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831"),
		BridgeDomain:       3,
		TokenMessenger:     common.HexToAddress("0x19330d10D9Cc8751218eaf51E8885D058642E08A"),
		MessageTransmitter: common.HexToAddress("0xC30362313FBBA5cf9163F0bb16a0e01f01A896ca"),
	},
}

// Get returns the chain for an id.
func Get(id uint64) (Chain, bool) {
	c, ok := registry[id]
	return c, ok
}

// Supported reports whether the chain id is registered.
func Supported(id uint64) bool {
	_, ok := registry[id]
	return ok
}

// IDs returns all registered chain ids.
func IDs() []uint64 {
	ids := make([]uint64, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	return ids
}
