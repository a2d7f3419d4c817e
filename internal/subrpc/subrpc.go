package subrpc

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/dotflow/refill-backend/internal/consts"
	"github.com/dotflow/refill-backend/internal/errs"
	"github.com/dotflow/refill-backend/internal/model"
	"github.com/dotflow/refill-backend/internal/scale"
	"github.com/dotflow/refill-backend/internal/utils/logger"
)

const rpcCallTimeout = 10 * time.Second

type SubstrateRPC struct {
	chain      string
	ss58Prefix uint8
	client     *rpc.Client
	logger     *logger.Logger
}

// New dials the chain's JSON-RPC endpoint. The caller owns the handle and
// must Close it; nothing here is a process-wide singleton.
func New(chain, endpoint string, ss58Prefix uint8, logger *logger.Logger) (ISubstrateRPC, error) {
	client, err := rpc.Dial(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s rpc endpoint", chain)
	}
	return &SubstrateRPC{
		chain:      chain,
		ss58Prefix: ss58Prefix,
		client:     client,
		logger:     logger,
	}, nil
}

func (s *SubstrateRPC) Chain() string {
	return s.chain
}

func (s *SubstrateRPC) Close() {
	s.client.Close()
}

func (s *SubstrateRPC) AssetBalance(ctx context.Context, address, token string) (decimal.Decimal, error) {
	assetID, ok := consts.OmnipoolAssetIDs[token]
	if !ok {
		return decimal.Zero, errors.Wrapf(errs.ErrAssetNotSupported, "token %s", token)
	}
	accountID, err := scale.SS58Decode(address)
	if err != nil {
		return decimal.Zero, err
	}

	args := append(append([]byte{}, accountID...), scale.EncodeU32(assetID)...)
	raw, err := s.stateCall(ctx, "CurrenciesApi_free_balance", args)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "failed to read %s balance of %s", token, address)
	}

	value, err := scale.DecodeU128(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(value, -consts.AssetDecimals[token]), nil
}

func (s *SubstrateRPC) AccountNextIndex(ctx context.Context, address string) (uint32, error) {
	ctx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	defer cancel()

	var nonce uint32
	if err := s.client.CallContext(ctx, &nonce, "system_accountNextIndex", address); err != nil {
		return 0, errors.Wrapf(err, "failed to read account nonce of %s", address)
	}
	return nonce, nil
}

func (s *SubstrateRPC) RouteQuote(ctx context.Context, tokenIn, tokenOut string, amountIn decimal.Decimal) (decimal.Decimal, error) {
	assetIn, ok := consts.OmnipoolAssetIDs[tokenIn]
	if !ok {
		return decimal.Zero, errors.Wrapf(errs.ErrAssetNotSupported, "token %s", tokenIn)
	}
	assetOut, ok := consts.OmnipoolAssetIDs[tokenOut]
	if !ok {
		return decimal.Zero, errors.Wrapf(errs.ErrAssetNotSupported, "token %s", tokenOut)
	}

	args := append(scale.EncodeU32(assetIn), scale.EncodeU32(assetOut)...)
	args = append(args, scale.EncodeU128(amountIn.Shift(consts.AssetDecimals[tokenIn]).BigInt())...)

	raw, err := s.stateCall(ctx, "RouterApi_quote_sell", args)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "failed to quote %s -> %s", tokenIn, tokenOut)
	}

	value, err := scale.DecodeU128(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(value, -consts.AssetDecimals[tokenOut]), nil
}

func (s *SubstrateRPC) GetMultisigOperation(ctx context.Context, payer, callHashHex string) (*model.MultisigOperation, error) {
	payerID, err := scale.SS58Decode(payer)
	if err != nil {
		return nil, err
	}
	callHash, err := hexDecode(callHashHex)
	if err != nil {
		return nil, err
	}
	if len(callHash) != 32 {
		return nil, errors.Errorf("call hash must be 32 bytes, got %d", len(callHash))
	}

	key := make([]byte, 0, 128)
	key = append(key, scale.Twox128([]byte("Multisig"))...)
	key = append(key, scale.Twox128([]byte("Multisigs"))...)
	key = append(key, scale.Twox64Concat(payerID)...)
	key = append(key, scale.Blake2b128Concat(callHash)...)

	ctx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	defer cancel()

	var result *string
	if err := s.client.CallContext(ctx, &result, "state_getStorage", "0x"+hex.EncodeToString(key)); err != nil {
		return nil, errors.Wrap(err, "failed to read multisig storage")
	}
	if result == nil {
		return nil, nil
	}

	raw, err := hexDecode(*result)
	if err != nil {
		return nil, err
	}
	return s.decodeMultisigOperation(payer, callHashHex, raw)
}

// Storage layout: when (height u32, index u32), deposit u128, depositor
// 32-byte account id, approvals as compact length + 32-byte account ids.
func (s *SubstrateRPC) decodeMultisigOperation(payer, callHashHex string, raw []byte) (*model.MultisigOperation, error) {
	if len(raw) < 4+4+16+32 {
		return nil, errors.Errorf("multisig storage value too short: %d bytes", len(raw))
	}

	op := &model.MultisigOperation{
		Payer:    payer,
		CallHash: callHashHex,
	}
	op.Timepoint.Height = leU32(raw[0:4])
	op.Timepoint.Index = leU32(raw[4:8])

	deposit, err := scale.DecodeU128(raw[8:24])
	if err != nil {
		return nil, err
	}
	op.Deposit = deposit

	depositor, err := scale.SS58Encode(raw[24:56], s.ss58Prefix)
	if err != nil {
		return nil, err
	}
	op.Depositor = depositor

	count, n, err := scale.CompactDecode(raw[56:])
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode approvals length")
	}
	cursor := 56 + n
	for i := uint64(0); i < count; i++ {
		if cursor+32 > len(raw) {
			return nil, errors.New("multisig storage value truncated in approvals")
		}
		approval, err := scale.SS58Encode(raw[cursor:cursor+32], s.ss58Prefix)
		if err != nil {
			return nil, err
		}
		op.Approvals = append(op.Approvals, approval)
		cursor += 32
	}
	return op, nil
}

func (s *SubstrateRPC) stateCall(ctx context.Context, method string, args []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	defer cancel()

	var result string
	if err := s.client.CallContext(ctx, &result, "state_call", method, "0x"+hex.EncodeToString(args)); err != nil {
		return nil, err
	}
	return hexDecode(result)
}

func leU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func hexDecode(value string) ([]byte, error) {
	decoded, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
	if err != nil {
		return nil, errors.Wrapf(err, "malformed hex %q", value)
	}
	return decoded, nil
}
