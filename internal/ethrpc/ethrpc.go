package ethrpc

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/dotflow/refill-backend/contracts/weth"
	"github.com/dotflow/refill-backend/internal/utils/logger"
)

const callTimeout = 10 * time.Second

// wethDecimals is fixed by the WETH contract.
const wethDecimals = 18

type EthRPC struct {
	client       *ethclient.Client
	wethInstance *weth.Weth
	logger       *logger.Logger
}

func New(endpoint, wethContractAddress string, logger *logger.Logger) (IEthRPC, error) {
	client, err := ethclient.Dial(endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to dial ethereum rpc endpoint")
	}

	wethInstance, err := weth.NewWeth(common.HexToAddress(wethContractAddress), client)
	if err != nil {
		client.Close()
		return nil, errors.Wrap(err, "failed to bind weth contract")
	}

	return &EthRPC{
		client:       client,
		wethInstance: wethInstance,
		logger:       logger,
	}, nil
}

func (e *EthRPC) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	balance, err := e.wethInstance.BalanceOf(&bind.CallOpts{Context: ctx}, common.HexToAddress(address))
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "failed to read weth balance of %s", address)
	}
	return decimal.NewFromBigInt(balance, -wethDecimals), nil
}

func (e *EthRPC) Close() {
	e.client.Close()
}
