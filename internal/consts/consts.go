package consts

// Chain identifiers. Hydration is the only supported source chain; the
// rest are refill destinations.
const (
	ChainHydration = "hydration"
	ChainCrust     = "crust"
	ChainKilt      = "kilt"
	ChainPhala     = "phala"
	ChainAcurast   = "acurast"
	ChainAstar     = "astar"
	ChainUnique    = "unique"
	ChainEthereum  = "ethereum"
)

const (
	ChainTypeSubstrate = "substrate"
	ChainTypeEVM       = "evm"
)

// SubstrateDestinations is the allow-list of parachain destinations a
// refill may target. EVM destinations are restricted to Ethereum.
var SubstrateDestinations = map[string]bool{
	ChainCrust:   true,
	ChainKilt:    true,
	ChainPhala:   true,
	ChainAcurast: true,
	ChainAstar:   true,
	ChainUnique:  true,
}

var EVMDestinations = map[string]bool{
	ChainEthereum: true,
}

// Omnipool asset ids on Hydration, keyed by token symbol.
var OmnipoolAssetIDs = map[string]uint32{
	"HDX":  0,
	"DOT":  5,
	"PHA":  8,
	"ASTR": 9,
	"WETH": 20,
	"UNQ":  25,
	"CRU":  27,
	"KILT": 28,
	"ACU":  33,
}

// AssetDecimals for the tokens the engine touches.
var AssetDecimals = map[string]int32{
	"HDX":  12,
	"DOT":  10,
	"PHA":  12,
	"ASTR": 18,
	"WETH": 18,
	"UNQ":  18,
	"CRU":  12,
	"KILT": 15,
	"ACU":  12,
}

// BridgeAsset maps a destination chain to the token that funds it.
var BridgeAsset = map[string]string{
	ChainCrust:    "CRU",
	ChainKilt:     "KILT",
	ChainPhala:    "PHA",
	ChainAcurast:  "ACU",
	ChainAstar:    "ASTR",
	ChainUnique:   "UNQ",
	ChainEthereum: "WETH",
}

// Minimum balances (whole units) the payer must hold on Hydration before a
// refill draft is accepted. DOT funds the bridge fee, so its floor is
// raised for Ethereum destinations where bridging is more expensive.
const (
	MinBalanceDOT         = 500
	MinBalanceHDX         = 200
	MinBalanceDOTEthereum = 550
)

// MinAmountInEthereum is the smallest accepted amountIn for transfers to
// Ethereum. Smaller refills get eaten by bridging costs.
const MinAmountInEthereum = 3

// SlippagePercent is subtracted from every route quote before the transfer
// leg is sized.
const SlippagePercent = 5

const (
	WebhookBatchSize  = 10
	IndexerMaxRetries = 3
)

// Hydration pallet/call indexes used when composing calls.
const (
	PalletUtility       = 29
	CallUtilityBatch    = 0
	PalletRouter        = 67
	CallRouterSell      = 1
	PalletXTokens       = 70
	CallXTokensTransfer = 0
	PalletMultisig      = 37
	CallAsMulti         = 1
	CallCancelAsMulti   = 3
)

// SS58AddressPrefix is Hydration's network prefix.
const SS58AddressPrefix = 63

// ParachainIDs on the Polkadot relay, used when composing the transfer
// destination for parachain targets.
var ParachainIDs = map[string]uint32{
	ChainCrust:   2008,
	ChainKilt:    2086,
	ChainPhala:   2035,
	ChainAcurast: 2239,
	ChainAstar:   2006,
	ChainUnique:  2037,
}

// EthereumChainID identifies Ethereum mainnet in the transfer destination.
const EthereumChainID = 1

const (
	TransactionTypeSwapAndTransfer = "SWAP_AND_TRANSFER"
	RefTableWallet                 = "wallet"
)
