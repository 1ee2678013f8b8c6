package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AssetType is the closed set of asset classes the service can price.
type AssetType string

const (
	AssetTypeCrypto AssetType = "crypto"
	AssetTypeStock  AssetType = "stock"
)

// SupportedAssetTypes lists every AssetType in a stable order.
var SupportedAssetTypes = []AssetType{AssetTypeCrypto, AssetTypeStock}

func (t AssetType) IsValid() bool {
	return t == AssetTypeCrypto || t == AssetTypeStock
}

// ParseAssetType case-folds s and rejects anything that is not crypto or stock.
func ParseAssetType(s string) (AssetType, error) {
	t := AssetType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAssetType, s)
	}
	return t, nil
}

// AssetRef identifies an asset by class and symbol. Symbols are stored upper-case.
type AssetRef struct {
	Type   AssetType `json:"assetType"`
	Symbol string    `json:"symbol"`
}

// NewAssetRef validates the type and normalizes the symbol.
func NewAssetRef(assetType, symbol string) (AssetRef, error) {
	t, err := ParseAssetType(assetType)
	if err != nil {
		return AssetRef{}, err
	}
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" {
		return AssetRef{}, fmt.Errorf("%w: symbol is required", ErrInvalidAsset)
	}
	return AssetRef{Type: t, Symbol: sym}, nil
}

// Normalize returns the ref with the symbol upper-cased and the type lower-cased.
func (a AssetRef) Normalize() AssetRef {
	return AssetRef{
		Type:   AssetType(strings.ToLower(string(a.Type))),
		Symbol: strings.ToUpper(strings.TrimSpace(a.Symbol)),
	}
}

// Key is the identity of the asset, e.g. "crypto:BITCOIN".
func (a AssetRef) Key() string {
	n := a.Normalize()
	return string(n.Type) + ":" + n.Symbol
}

func (a AssetRef) String() string { return a.Key() }

// Quote is a single point-in-time price observation for an asset.
type Quote struct {
	Asset        AssetRef         `json:"asset"`
	Price        decimal.Decimal  `json:"price"`
	Change24hPct *decimal.Decimal `json:"change24hPercent"`
	MarketCap    *decimal.Decimal `json:"marketCap"`
	ObservedAt   time.Time        `json:"observedAt"`
}

// PricePoint is one sample of a historical series.
type PricePoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
}

// HistoricalSeries is a price-over-time series ordered ascending by timestamp.
type HistoricalSeries struct {
	Asset      AssetRef     `json:"asset"`
	WindowDays int          `json:"windowDays"`
	Points     []PricePoint `json:"points"`
}

// SortPoints orders points ascending by timestamp.
func SortPoints(points []PricePoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
}
