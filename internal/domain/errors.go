package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedAssetType = errors.New("unsupported asset type")
	ErrProviderUnavailable  = errors.New("provider unavailable")
	ErrAssetNotFound        = errors.New("asset not found")
	ErrUpstream             = errors.New("upstream error")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrPortfolioNotFound    = errors.New("portfolio not found")
	ErrHoldingNotFound      = errors.New("holding not found")
	ErrInvalidAsset         = errors.New("invalid asset")
	ErrInvalidHolding       = errors.New("invalid holding")
	ErrInvalidPortfolio     = errors.New("invalid portfolio")
)

// UpstreamError wraps a transport or parse failure from a price provider.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}
