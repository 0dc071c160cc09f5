package processors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/username/coinsensei/backend/src/models"
	"github.com/username/coinsensei/backend/src/utils"
)

const (
	topHoldingsCount = 5
	performersCount  = 3
)

type SummaryProcessor struct {
	concentrationWarnThreshold float64
}

func NewSummaryProcessor(concentrationWarnThreshold float64) *SummaryProcessor {
	return &SummaryProcessor{concentrationWarnThreshold: concentrationWarnThreshold}
}

// Process assigns allocation percentages to the given positions and
// builds the portfolio summary. Allocation is a second pass over fully
// computed positions: values first, shares after.
func (p *SummaryProcessor) Process(positions []models.TokenPosition) ([]models.TokenPosition, models.PortfolioSummary) {
	var totalValue, totalCostBasis, totalPnLUnrealized, totalPnLRealized float64
	for _, pos := range positions {
		totalValue += pos.TotalValue
		totalCostBasis += pos.CostBasis
		totalPnLUnrealized += pos.PnLUnrealized
		totalPnLRealized += pos.PnLRealized
	}

	for i := range positions {
		positions[i].AllocationPct = utils.SafeDiv(positions[i].TotalValue, totalValue) * 100
	}

	totalPnL := totalPnLUnrealized + totalPnLRealized
	roiPct := 0.0
	if totalCostBasis > 0 {
		roiPct = totalPnL / totalCostBasis * 100
	}

	sortedByValue := make([]models.TokenPosition, len(positions))
	copy(sortedByValue, positions)
	sort.SliceStable(sortedByValue, func(i, j int) bool {
		return sortedByValue[i].TotalValue > sortedByValue[j].TotalValue
	})

	sortedByROI := make([]models.TokenPosition, len(positions))
	copy(sortedByROI, positions)
	sort.SliceStable(sortedByROI, func(i, j int) bool {
		return unrealizedROI(sortedByROI[i]) > unrealizedROI(sortedByROI[j])
	})

	topHoldings := firstN(sortedByValue, topHoldingsCount)
	bestPerformers := firstN(sortedByROI, performersCount)
	worstPerformers := lastNReversed(sortedByROI, performersCount)

	var concentrationWarnings []models.TokenPosition
	for _, pos := range positions {
		if pos.AllocationPct >= p.concentrationWarnThreshold {
			concentrationWarnings = append(concentrationWarnings, pos)
		}
	}

	summary := models.PortfolioSummary{
		TotalValue:            totalValue,
		TotalCostBasis:        totalCostBasis,
		TotalPnLUnrealized:    totalPnLUnrealized,
		TotalPnLRealized:      totalPnLRealized,
		TotalPnL:              totalPnL,
		ROIPct:                roiPct,
		TokenCount:            len(positions),
		TopHoldings:           topHoldings,
		BestPerformers:        bestPerformers,
		WorstPerformers:       worstPerformers,
		ConcentrationWarnings: concentrationWarnings,
		SummaryText:           summaryText(totalValue, totalPnL, roiPct, len(positions), topHoldings),
	}
	return positions, summary
}

// unrealizedROI is the ranking key for best/worst performers.
func unrealizedROI(pos models.TokenPosition) float64 {
	if pos.CostBasis > 0 {
		return pos.PnLUnrealized / pos.CostBasis * 100
	}
	return 0
}

func firstN(positions []models.TokenPosition, n int) []models.TokenPosition {
	if len(positions) < n {
		n = len(positions)
	}
	return append([]models.TokenPosition{}, positions[:n]...)
}

// lastNReversed returns the tail of a descending-ROI ranking in
// ascending-ROI order, worst first.
func lastNReversed(positions []models.TokenPosition, n int) []models.TokenPosition {
	if len(positions) < n {
		n = len(positions)
	}
	tail := positions[len(positions)-n:]
	reversed := make([]models.TokenPosition, n)
	for i := range tail {
		reversed[n-1-i] = tail[i]
	}
	return reversed
}

func summaryText(totalValue, totalPnL, roiPct float64, tokenCount int, topHoldings []models.TokenPosition) string {
	pnlSign := ""
	if totalPnL >= 0 {
		pnlSign = "+"
	}
	symbols := make([]string, len(topHoldings))
	for i, pos := range topHoldings {
		symbols[i] = pos.Symbol
	}
	return fmt.Sprintf("Portfolio valued at $%.2f with %s$%.2f (%s%.2f%%) total P&L across %d tokens. Top holdings: %s.",
		totalValue, pnlSign, totalPnL, pnlSign, roiPct, tokenCount, strings.Join(symbols, ", "))
}
