package services

import (
	"context"
	"errors"

	"github.com/username/coinsensei/backend/src/models"
)

var (
	// ErrInvalidInput marks structurally malformed input (empty token,
	// unparseable date). It is distinct from data-hygiene findings,
	// which are returned as diagnostics, not errors.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPriceUnavailable is returned by single price lookups when no
	// price could be resolved. Analyze never surfaces it; the affected
	// token is dropped instead.
	ErrPriceUnavailable = errors.New("price unavailable")
)

// PriceService resolves token identifiers to current market prices.
// GetPrices is best-effort: tokens that cannot be resolved are simply
// absent from the returned map. The returned error reports a failed
// fetch for logging; callers degrade gracefully rather than abort.
type PriceService interface {
	GetPrice(ctx context.Context, tokenID string) (models.PriceData, error)
	GetPrices(ctx context.Context, tokenIDs []string) (map[string]models.PriceData, error)
}

// PortfolioService is the public surface of the analytics core.
type PortfolioService interface {
	Analyze(ctx context.Context, manualEntries []models.ManualEntry, exchangeTxs []models.ExchangeTransaction, priceOverrides map[string]float64) (*models.AnalyzeResult, error)
}
