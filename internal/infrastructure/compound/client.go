// Package compound reads lending positions from the Compound protocol:
// account liquidity from the Comptroller and per-market borrow balances from
// each cToken the account participates in.
package compound

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/compound-health-monitor/internal/domain"
	"github.com/shopspring/decimal"
)

// Minimal ABI fragments for the read-only calls the monitor needs.
const (
	comptrollerABIJSON = `[
		{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"getAccountLiquidity","outputs":[{"name":"","type":"uint256"},{"name":"","type":"uint256"},{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
		{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"getAssetsIn","outputs":[{"name":"","type":"address[]"}],"stateMutability":"view","type":"function"}
	]`
	cTokenABIJSON = `[
		{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"borrowBalanceStored","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
	]`
)

// Comptroller values are mantissa-scaled by 1e18.
const mantissaDecimals = 18

// Client reads account positions over an Ethereum JSON-RPC endpoint.
type Client struct {
	eth            *ethclient.Client
	comptroller    common.Address
	comptrollerABI abi.ABI
	cTokenABI      abi.ABI
}

// Dial connects to the RPC endpoint and prepares the contract ABIs.
func Dial(rpcURL, comptrollerAddr string) (*Client, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial eth rpc: %w", err)
	}
	compABI, err := abi.JSON(strings.NewReader(comptrollerABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse comptroller abi: %w", err)
	}
	ctABI, err := abi.JSON(strings.NewReader(cTokenABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse ctoken abi: %w", err)
	}
	return &Client{
		eth:            eth,
		comptroller:    common.HexToAddress(comptrollerAddr),
		comptrollerABI: compABI,
		cTokenABI:      ctABI,
	}, nil
}

// AccountPosition fetches liquidity, shortfall and the outstanding borrow
// balance on every market the account has entered. One remote call per
// entered market, so the cost grows with the account's market count.
func (c *Client) AccountPosition(ctx context.Context, address string) (*domain.AccountPosition, error) {
	account := common.HexToAddress(address)

	liquidity, shortfall, err := c.accountLiquidity(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("get account liquidity: %w", err)
	}

	markets, err := c.assetsIn(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("get assets in: %w", err)
	}

	pos := &domain.AccountPosition{
		Liquidity: decimal.NewFromBigInt(liquidity, -mantissaDecimals),
		Shortfall: decimal.NewFromBigInt(shortfall, -mantissaDecimals),
	}
	for _, market := range markets {
		balance, err := c.borrowBalance(ctx, market, account)
		if err != nil {
			return nil, fmt.Errorf("borrow balance %s: %w", market.Hex(), err)
		}
		pos.Borrows = append(pos.Borrows, domain.InstrumentBorrow{
			Instrument: market.Hex(),
			Balance:    decimal.NewFromBigInt(balance, -mantissaDecimals),
		})
	}
	return pos, nil
}

// accountLiquidity calls Comptroller.getAccountLiquidity, which returns
// (error code, liquidity, shortfall). A non-zero error code is a failed read.
func (c *Client) accountLiquidity(ctx context.Context, account common.Address) (*big.Int, *big.Int, error) {
	out, err := c.call(ctx, c.comptroller, c.comptrollerABI, "getAccountLiquidity", account)
	if err != nil {
		return nil, nil, err
	}
	if len(out) != 3 {
		return nil, nil, fmt.Errorf("unexpected output arity %d", len(out))
	}
	errCode := out[0].(*big.Int)
	if errCode.Sign() != 0 {
		return nil, nil, fmt.Errorf("comptroller error code %s", errCode)
	}
	return out[1].(*big.Int), out[2].(*big.Int), nil
}

func (c *Client) assetsIn(ctx context.Context, account common.Address) ([]common.Address, error) {
	out, err := c.call(ctx, c.comptroller, c.comptrollerABI, "getAssetsIn", account)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("unexpected output arity %d", len(out))
	}
	markets, ok := out[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", out[0])
	}
	return markets, nil
}

func (c *Client) borrowBalance(ctx context.Context, cToken, account common.Address) (*big.Int, error) {
	out, err := c.call(ctx, cToken, c.cTokenABI, "borrowBalanceStored", account)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("unexpected output arity %d", len(out))
	}
	return out[0].(*big.Int), nil
}

func (c *Client) call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	out, err := contractABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return out, nil
}
