package model

import (
	"fmt"
)

// AssetType classifies an instrument.
type AssetType uint8

const (
	AssetStock AssetType = iota
	AssetDepositaryReceipt
	AssetBond
	AssetETF
	AssetOption
	AssetFuture
)

var assetTypeTokens = [...]string{
	AssetStock:             "STOCK",
	AssetDepositaryReceipt: "DEPOSITARY_RECEIPT",
	AssetBond:              "BOND",
	AssetETF:               "ETF",
	AssetOption:            "OPTION",
	AssetFuture:            "FUTURE",
}

func (a AssetType) String() string { return tokenOf(assetTypeTokens[:], int(a)) }

func (a AssetType) MarshalText() ([]byte, error) { return marshalToken(assetTypeTokens[:], int(a), "asset type") }

func (a *AssetType) UnmarshalText(b []byte) error {
	i, err := parseToken(assetTypeTokens[:], string(b), "asset type")
	if err != nil {
		return err
	}
	*a = AssetType(i)
	return nil
}

// Market is the venue an instrument trades on. Tokens are the venue names.
type Market uint8

const (
	MarketLocalExchange Market = iota
	MarketOTCInterbank
	MarketOTCSmallCap
	MarketDerivativesExchange
	MarketNYSE
	MarketNASDAQ
)

var marketTokens = [...]string{
	MarketLocalExchange:       "BYMA",
	MarketOTCInterbank:        "MAE",
	MarketOTCSmallCap:         "MAV",
	MarketDerivativesExchange: "ROFEX",
	MarketNYSE:                "NYSE",
	MarketNASDAQ:              "NASDAQ",
}

func (m Market) String() string { return tokenOf(marketTokens[:], int(m)) }

func (m Market) MarshalText() ([]byte, error) { return marshalToken(marketTokens[:], int(m), "market") }

func (m *Market) UnmarshalText(b []byte) error {
	i, err := parseToken(marketTokens[:], string(b), "market")
	if err != nil {
		return err
	}
	*m = Market(i)
	return nil
}

// Currency is the quote currency of an instrument.
type Currency uint8

const (
	CurrencyARS Currency = iota
	CurrencyUSD
	CurrencyUSDLinked
	CurrencyEUR
)

var currencyTokens = [...]string{
	CurrencyARS:       "ARS",
	CurrencyUSD:       "USD",
	CurrencyUSDLinked: "USD-LINKED",
	CurrencyEUR:       "EUR",
}

func (c Currency) String() string { return tokenOf(currencyTokens[:], int(c)) }

func (c Currency) MarshalText() ([]byte, error) { return marshalToken(currencyTokens[:], int(c), "currency") }

func (c *Currency) UnmarshalText(b []byte) error {
	i, err := parseToken(currencyTokens[:], string(b), "currency")
	if err != nil {
		return err
	}
	*c = Currency(i)
	return nil
}

// Tier is the listing panel of the local exchange.
type Tier uint8

const (
	TierBlueChip Tier = iota
	TierGeneral
	TierSmallCap
	TierBonds
	TierBills
)

var tierTokens = [...]string{
	TierBlueChip: "BLUE_CHIP",
	TierGeneral:  "GENERAL",
	TierSmallCap: "SMALL_CAP",
	TierBonds:    "BONDS",
	TierBills:    "BILLS",
}

func (t Tier) String() string { return tokenOf(tierTokens[:], int(t)) }

func (t Tier) MarshalText() ([]byte, error) { return marshalToken(tierTokens[:], int(t), "tier") }

func (t *Tier) UnmarshalText(b []byte) error {
	i, err := parseToken(tierTokens[:], string(b), "tier")
	if err != nil {
		return err
	}
	*t = Tier(i)
	return nil
}

// Instrument is the resolved, classified description of a domain symbol.
// Values are shared through the instrument cache and must not be mutated.
type Instrument struct {
	DomainSymbol   string    `json:"domainSymbol"`
	ProviderSymbol string    `json:"providerSymbol"`
	AssetType      AssetType `json:"assetType"`
	Market         Market    `json:"market"`
	Currency       Currency  `json:"currency"`
	DisplayName    string    `json:"displayName"`
	Tier           Tier      `json:"tier"`
}

func tokenOf(tokens []string, i int) string {
	if i < 0 || i >= len(tokens) {
		return fmt.Sprintf("UNKNOWN(%d)", i)
	}
	return tokens[i]
}

func marshalToken(tokens []string, i int, kind string) ([]byte, error) {
	if i < 0 || i >= len(tokens) {
		return nil, fmt.Errorf("invalid %s %d", kind, i)
	}
	return []byte(tokens[i]), nil
}

func parseToken(tokens []string, s, kind string) (int, error) {
	for i, t := range tokens {
		if t == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}
