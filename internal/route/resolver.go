package route

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/dotflow/refill-backend/internal/consts"
	"github.com/dotflow/refill-backend/internal/errs"
	"github.com/dotflow/refill-backend/internal/ethrpc"
	"github.com/dotflow/refill-backend/internal/model"
	"github.com/dotflow/refill-backend/internal/scale"
	"github.com/dotflow/refill-backend/internal/subrpc"
	"github.com/dotflow/refill-backend/internal/utils/logger"
)

// SourceAsset is what every swap leg sells. Refill wallets are funded in
// DOT; the destination's bridge asset is bought out of the omnipool.
const SourceAsset = "DOT"

const (
	quoteCacheTTL     = 30 * time.Second
	quoteCacheCleanup = time.Minute
)

var slippageFactor = decimal.NewFromInt(100 - consts.SlippagePercent).Div(decimal.NewFromInt(100))

type Resolver struct {
	pool       *subrpc.Pool
	ethRPC     ethrpc.IEthRPC
	logger     *logger.Logger
	quoteCache *gocache.Cache
}

func New(pool *subrpc.Pool, ethRPC ethrpc.IEthRPC, logger *logger.Logger) IResolver {
	return &Resolver{
		pool:       pool,
		ethRPC:     ethRPC,
		logger:     logger,
		quoteCache: gocache.New(quoteCacheTTL, quoteCacheCleanup),
	}
}

func (r *Resolver) SourceBalances(ctx context.Context, payer string, tokens []string) (map[string]decimal.Decimal, error) {
	source, err := r.pool.Get(consts.ChainHydration)
	if err != nil {
		return nil, err
	}

	balances := make(map[string]decimal.Decimal, len(tokens))
	for _, token := range tokens {
		balance, err := source.AssetBalance(ctx, payer, token)
		if err != nil {
			r.logger.Error("[SourceBalances][AssetBalance]", map[string]string{
				"token": token,
				"error": err.Error(),
			})
			return nil, err
		}
		balances[token] = balance
	}
	return balances, nil
}

func (r *Resolver) Resolve(ctx context.Context, in ResolveInput) (*Result, error) {
	if !in.AmountIn.IsPositive() {
		return nil, errors.Wrapf(errs.ErrInvalidAmount, "amountIn %s", in.AmountIn)
	}
	if !consts.SubstrateDestinations[in.DestChain] && !consts.EVMDestinations[in.DestChain] {
		return nil, errors.Wrapf(errs.ErrChainNotSupported, "destination %s", in.DestChain)
	}

	destAsset, ok := consts.BridgeAsset[in.DestChain]
	if !ok {
		return nil, errors.Wrapf(errs.ErrChainNotSupported, "no bridge asset for %s", in.DestChain)
	}
	if _, ok := consts.OmnipoolAssetIDs[SourceAsset]; !ok {
		return nil, errors.Wrapf(errs.ErrAssetNotSupported, "no asset id for %s", SourceAsset)
	}
	if _, ok := consts.OmnipoolAssetIDs[destAsset]; !ok {
		return nil, errors.Wrapf(errs.ErrAssetNotSupported, "no asset id for %s", destAsset)
	}

	trade := &model.TradeLeg{
		AssetIn:  SourceAsset,
		AssetOut: destAsset,
		AmountIn: in.AmountIn,
	}
	transferAmount := in.AmountIn

	// Repeated refills against a wallet that is already funded should not
	// buy more of the asset; the swap leg is dropped and the payer's
	// existing holding is transferred instead.
	if r.destinationFunded(ctx, in, destAsset) {
		trade.Skipped = true
	} else {
		quote, err := r.quote(ctx, SourceAsset, destAsset, in.AmountIn)
		if err != nil {
			return nil, err
		}
		trade.AmountOut = quote.Mul(slippageFactor)
		transferAmount = trade.AmountOut
	}

	transfer := &model.TransferLeg{
		Asset:       destAsset,
		Amount:      transferAmount,
		DestChain:   in.DestChain,
		DestAddress: in.DestAddress,
	}

	call, err := r.buildCall(trade, transfer)
	if err != nil {
		return nil, err
	}
	hash := scale.CallHash(call)

	return &Result{
		Trade:    trade,
		Transfer: transfer,
		CallData: "0x" + hex.EncodeToString(call),
		CallHash: "0x" + hex.EncodeToString(hash[:]),
	}, nil
}

// destinationFunded reports whether the destination wallet already holds at
// least amountIn of the target asset. Read failures are logged and treated
// as unfunded so a flaky destination endpoint degrades to a normal swap
// rather than blocking the refill.
func (r *Resolver) destinationFunded(ctx context.Context, in ResolveInput, destAsset string) bool {
	var balance decimal.Decimal
	var err error

	if in.DestChain == consts.ChainEthereum {
		balance, err = r.ethRPC.Balance(ctx, in.DestAddress)
	} else {
		var handle subrpc.ISubstrateRPC
		handle, err = r.pool.Get(in.DestChain)
		if err == nil {
			balance, err = handle.AssetBalance(ctx, in.DestAddress, destAsset)
		}
	}
	if err != nil {
		r.logger.Error("[Resolve][DestinationBalance]", map[string]string{
			"chain": in.DestChain,
			"error": err.Error(),
		})
		return false
	}
	return balance.GreaterThanOrEqual(in.AmountIn)
}

func (r *Resolver) quote(ctx context.Context, assetIn, assetOut string, amountIn decimal.Decimal) (decimal.Decimal, error) {
	key := fmt.Sprintf("%s:%s:%s", assetIn, assetOut, amountIn)
	if cached, ok := r.quoteCache.Get(key); ok {
		return cached.(decimal.Decimal), nil
	}

	source, err := r.pool.Get(consts.ChainHydration)
	if err != nil {
		return decimal.Zero, err
	}
	quote, err := source.RouteQuote(ctx, assetIn, assetOut, amountIn)
	if err != nil {
		r.logger.Error("[Resolve][RouteQuote]", map[string]string{
			"assetIn":  assetIn,
			"assetOut": assetOut,
			"error":    err.Error(),
		})
		return decimal.Zero, err
	}

	r.quoteCache.Set(key, quote, gocache.DefaultExpiration)
	return quote, nil
}

// buildCall composes utility.batch over the swap (unless skipped) and the
// cross-chain transfer.
func (r *Resolver) buildCall(trade *model.TradeLeg, transfer *model.TransferLeg) ([]byte, error) {
	var calls [][]byte

	if !trade.Skipped {
		sell, err := routerSellCall(trade)
		if err != nil {
			return nil, err
		}
		calls = append(calls, sell)
	}

	xfer, err := transferCall(transfer)
	if err != nil {
		return nil, err
	}
	calls = append(calls, xfer)

	batch := []byte{consts.PalletUtility, consts.CallUtilityBatch}
	batch = append(batch, scale.CompactEncode(uint64(len(calls)))...)
	for _, call := range calls {
		batch = append(batch, call...)
	}
	return batch, nil
}

// routerSellCall encodes router.sell(asset_in, asset_out, amount_in,
// min_amount_out, route). The route vec is left empty so the chain picks
// the best path itself.
func routerSellCall(trade *model.TradeLeg) ([]byte, error) {
	amountIn, err := rawAmount(trade.AssetIn, trade.AmountIn)
	if err != nil {
		return nil, err
	}
	minAmountOut, err := rawAmount(trade.AssetOut, trade.AmountOut)
	if err != nil {
		return nil, err
	}

	call := []byte{consts.PalletRouter, consts.CallRouterSell}
	call = append(call, scale.EncodeU32(consts.OmnipoolAssetIDs[trade.AssetIn])...)
	call = append(call, scale.EncodeU32(consts.OmnipoolAssetIDs[trade.AssetOut])...)
	call = append(call, scale.EncodeU128(amountIn)...)
	call = append(call, scale.EncodeU128(minAmountOut)...)
	call = append(call, scale.CompactEncode(0)...)
	return call, nil
}

// transferCall encodes xTokens.transfer(currency_id, amount, dest,
// dest_weight_limit) with an Unlimited weight limit.
func transferCall(transfer *model.TransferLeg) ([]byte, error) {
	amount, err := rawAmount(transfer.Asset, transfer.Amount)
	if err != nil {
		return nil, err
	}
	dest, err := encodeDestination(transfer.DestChain, transfer.DestAddress)
	if err != nil {
		return nil, err
	}

	call := []byte{consts.PalletXTokens, consts.CallXTokensTransfer}
	call = append(call, scale.EncodeU32(consts.OmnipoolAssetIDs[transfer.Asset])...)
	call = append(call, scale.EncodeU128(amount)...)
	call = append(call, dest...)
	call = append(call, 0x00) // WeightLimit::Unlimited
	return call, nil
}

// encodeDestination builds the versioned XCM location of the beneficiary.
// Parachains sit one hop up through the relay; Ethereum is addressed through
// its global consensus network.
func encodeDestination(chain, address string) ([]byte, error) {
	if chain == consts.ChainEthereum {
		key, err := hex.DecodeString(strings.TrimPrefix(address, "0x"))
		if err != nil || len(key) != 20 {
			return nil, errors.Errorf("invalid ethereum address %s", address)
		}
		dest := []byte{0x03, 0x02, 0x02} // V3, parents=2, X2
		dest = append(dest, 0x09, 0x07)  // GlobalConsensus(Ethereum)
		dest = append(dest, scale.CompactEncode(consts.EthereumChainID)...)
		dest = append(dest, 0x03, 0x00) // AccountKey20, network None
		dest = append(dest, key...)
		return dest, nil
	}

	paraID, ok := consts.ParachainIDs[chain]
	if !ok {
		return nil, errors.Wrapf(errs.ErrChainNotSupported, "no parachain id for %s", chain)
	}
	accountID, err := scale.SS58Decode(address)
	if err != nil {
		return nil, err
	}

	dest := []byte{0x03, 0x01, 0x02} // V3, parents=1, X2
	dest = append(dest, 0x00)        // Parachain
	dest = append(dest, scale.CompactEncode(uint64(paraID))...)
	dest = append(dest, 0x01, 0x00) // AccountId32, network None
	dest = append(dest, accountID...)
	return dest, nil
}

// rawAmount shifts a human-unit amount into the asset's on-chain integer
// representation.
func rawAmount(symbol string, amount decimal.Decimal) (*big.Int, error) {
	decimals, ok := consts.AssetDecimals[symbol]
	if !ok {
		return nil, errors.Wrapf(errs.ErrAssetNotSupported, "no decimals for %s", symbol)
	}
	return amount.Shift(decimals).Truncate(0).BigInt(), nil
}
