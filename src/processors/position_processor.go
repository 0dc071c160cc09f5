package processors

import (
	"github.com/username/coinsensei/backend/src/models"
	"github.com/username/coinsensei/backend/src/utils"
)

type PositionProcessor struct{}

func NewPositionProcessor() *PositionProcessor {
	return &PositionProcessor{}
}

// Process replays one token's chronological trade stream into a fully
// computed position. AllocationPct is left at zero; it is assigned by
// the summary processor once all positions are known.
func (p *PositionProcessor) Process(token string, trades []models.Trade, currentPrice float64, priceSource string) models.TokenPosition {
	var amount, costBasis, realizedPnL float64
	var buyTrades, sellTrades []models.Trade

	for _, trade := range trades {
		switch trade.Type {
		case models.TradeTypeBuy:
			amount += trade.Amount
			costBasis += trade.Amount * trade.Price
			buyTrades = append(buyTrades, trade)
		case models.TradeTypeSell:
			// Average cost immediately before this sell. Guarded:
			// a sell with nothing held realizes the full sale price
			// and drives the amount negative, which the hygiene
			// processor reports as an impossible quantity.
			avgCost := utils.SafeDiv(costBasis, amount)
			realizedPnL += (trade.Price - avgCost) * trade.Amount
			costBasis -= avgCost * trade.Amount
			amount -= trade.Amount
			sellTrades = append(sellTrades, trade)
		}
	}

	avgCostWAC := 0.0
	if amount > 0 {
		avgCostWAC = costBasis / amount
	}

	totalValue := amount * currentPrice

	position := models.TokenPosition{
		Token:         token,
		Symbol:        token,
		Amount:        amount,
		AvgCostWAC:    avgCostWAC,
		AvgCostFIFO:   computeFIFO(buyTrades, sellTrades),
		CurrentPrice:  currentPrice,
		PriceSource:   priceSource,
		TotalValue:    totalValue,
		CostBasis:     costBasis,
		PnLUnrealized: totalValue - costBasis,
		PnLRealized:   realizedPnL,
		WinLossRatio:  computeWinLossRatio(buyTrades, sellTrades),
		Trades:        append(append([]models.Trade{}, buyTrades...), sellTrades...),
	}
	if len(buyTrades) > 0 {
		position.FirstBuyDate = buyTrades[0].Date
	}
	if len(trades) > 0 {
		position.LastTradeDate = trades[len(trades)-1].Date
	}
	return position
}

// computeFIFO matches sells against buys in chronological order,
// consuming the earliest open lot first. Consumption state lives in a
// separate remaining-quantity table; the ingested buy trades are never
// written to, since the same values are reported in the position's
// trade list and used for the win/loss ratio.
func computeFIFO(buyTrades, sellTrades []models.Trade) float64 {
	remaining := make([]float64, len(buyTrades))
	for i, buy := range buyTrades {
		remaining[i] = buy.Amount
	}

	var totalCost, totalAmount float64
	lot := 0

	for _, sell := range sellTrades {
		sellAmount := sell.Amount
		for sellAmount > 0 && lot < len(buyTrades) {
			matched := sellAmount
			if remaining[lot] < matched {
				matched = remaining[lot]
			}
			totalCost += matched * buyTrades[lot].Price
			totalAmount += matched
			remaining[lot] -= matched
			sellAmount -= matched
			if remaining[lot] == 0 {
				lot++
			}
		}
	}

	for i := lot; i < len(buyTrades); i++ {
		totalCost += remaining[i] * buyTrades[i].Price
		totalAmount += remaining[i]
	}

	return utils.SafeDiv(totalCost, totalAmount)
}

// computeWinLossRatio compares each sell price against the simple
// unweighted average of all buy prices. Returns wins/losses, or the
// win count when there are no losses, or 0 when there are no sells.
func computeWinLossRatio(buyTrades, sellTrades []models.Trade) float64 {
	if len(sellTrades) == 0 {
		return 0
	}

	var sum float64
	for _, buy := range buyTrades {
		sum += buy.Price
	}
	avgBuyPrice := utils.SafeDiv(sum, float64(len(buyTrades)))

	var wins, losses float64
	for _, sell := range sellTrades {
		if sell.Price > avgBuyPrice {
			wins++
		} else {
			losses++
		}
	}
	if losses == 0 {
		return wins
	}
	return wins / losses
}
