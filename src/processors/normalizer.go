package processors

import (
	"sort"

	"github.com/username/coinsensei/backend/src/models"
	"github.com/username/coinsensei/backend/src/utils"
)

// CombineTrades merges manual entries and exchange transactions into a
// single chronological trade stream. Manual entries always become buys.
// Exchange records with a type other than buy/sell are dropped.
//
// Manual entries are appended before exchange transactions and the sort
// is stable, so equal-date manual entries precede exchange entries.
// This ordering feeds cost-basis sequencing and must not change.
func CombineTrades(manualEntries []models.ManualEntry, exchangeTxs []models.ExchangeTransaction) []models.Trade {
	trades := make([]models.Trade, 0, len(manualEntries)+len(exchangeTxs))

	for _, entry := range manualEntries {
		trades = append(trades, models.Trade{
			Token:  entry.Token,
			Date:   entry.BuyDate,
			Type:   models.TradeTypeBuy,
			Amount: entry.Amount,
			Price:  entry.BuyPrice,
		})
	}

	for _, tx := range exchangeTxs {
		if tx.Type != models.TradeTypeBuy && tx.Type != models.TradeTypeSell {
			continue
		}
		trades = append(trades, models.Trade{
			Token:  tx.Token,
			Date:   tx.Date,
			Type:   tx.Type,
			Amount: tx.Amount,
			Price:  tx.Price,
		})
	}

	sort.SliceStable(trades, func(i, j int) bool {
		return utils.ParseDate(trades[i].Date).Before(utils.ParseDate(trades[j].Date))
	})

	return trades
}

// GroupTradesByToken groups a trade stream by the raw, unnormalized
// token string. "BTC" and "btc" deliberately form independent groups;
// the hygiene processor flags the mismatch instead of merging them.
// The returned slice lists tokens in order of first appearance so that
// callers produce deterministic output.
func GroupTradesByToken(trades []models.Trade) (map[string][]models.Trade, []string) {
	grouped := make(map[string][]models.Trade)
	var order []string
	for _, trade := range trades {
		if _, seen := grouped[trade.Token]; !seen {
			order = append(order, trade.Token)
		}
		grouped[trade.Token] = append(grouped[trade.Token], trade)
	}
	return grouped, order
}
