package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/etherscan-client/pkg/record"
	"github.com/shopspring/decimal"
)

// EthPrice is the last ether price reported by the explorer.
type EthPrice struct {
	ETHBTC     decimal.Decimal `json:"eth_btc"`
	ETHBTCTime time.Time       `json:"eth_btc_time"`
	ETHUSD     decimal.Decimal `json:"eth_usd"`
	ETHUSDTime time.Time       `json:"eth_usd_time"`
}

type ethPriceResult struct {
	ETHBTC          decimal.Decimal `json:"ethbtc"`
	ETHBTCTimestamp string          `json:"ethbtc_timestamp"`
	ETHUSD          decimal.Decimal `json:"ethusd"`
	ETHUSDTimestamp string          `json:"ethusd_timestamp"`
}

// EthPrice returns the current ether price in BTC and USD.
func (c *Client) EthPrice(ctx context.Context) (*EthPrice, error) {
	result, err := c.Get(ctx, "stats", "ethprice", url.Values{})
	if err != nil {
		return nil, fmt.Errorf("eth price: %w", err)
	}

	var res ethPriceResult
	if err := json.Unmarshal(result, &res); err != nil {
		return nil, &record.DecodeError{Field: "result", Value: string(result), Origin: record.OriginAccount, Err: err}
	}

	btcTime, err := unixSeconds("ethbtc_timestamp", res.ETHBTCTimestamp)
	if err != nil {
		return nil, err
	}
	usdTime, err := unixSeconds("ethusd_timestamp", res.ETHUSDTimestamp)
	if err != nil {
		return nil, err
	}

	return &EthPrice{
		ETHBTC:     res.ETHBTC,
		ETHBTCTime: btcTime,
		ETHUSD:     res.ETHUSD,
		ETHUSDTime: usdTime,
	}, nil
}

func unixSeconds(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, &record.DecodeError{Field: field, Origin: record.OriginAccount, Err: record.ErrMissingField}
	}
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, &record.DecodeError{Field: field, Value: s, Origin: record.OriginAccount, Err: err}
	}
	return time.Unix(secs, 0).UTC(), nil
}
