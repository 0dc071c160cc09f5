package processors

import (
	"github.com/username/coinsensei/backend/src/models"
)

// PositionCalculator defines the interface for replaying a token's
// trade stream into a position.
type PositionCalculator interface {
	Process(token string, trades []models.Trade, currentPrice float64, priceSource string) models.TokenPosition
}

// SummaryAggregator defines the interface for turning positions into a
// portfolio summary (and assigning allocations along the way).
type SummaryAggregator interface {
	Process(positions []models.TokenPosition) ([]models.TokenPosition, models.PortfolioSummary)
}

// HygieneDetector defines the interface for the data-quality scan.
type HygieneDetector interface {
	DetectIssues(manualEntries []models.ManualEntry, exchangeTxs []models.ExchangeTransaction, positions []models.TokenPosition) []models.DataHygieneIssue
}
