package processors

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/username/coinsensei/backend/src/models"
	"github.com/username/coinsensei/backend/src/utils"
)

// HygieneProcessor scans raw input records and computed positions for
// data-quality defects. It never mutates its input and never blocks
// the accounting computation; every finding is a diagnostic value.
type HygieneProcessor struct {
	now func() time.Time
}

func NewHygieneProcessor(now func() time.Time) *HygieneProcessor {
	if now == nil {
		now = time.Now
	}
	return &HygieneProcessor{now: now}
}

// DetectIssues runs the five detectors and concatenates their results
// in a fixed order: duplicates, ticker mismatches, impossible
// quantities, missing prices, future dates. The function is pure and
// idempotent: identical input yields an identical issue list.
func (p *HygieneProcessor) DetectIssues(manualEntries []models.ManualEntry, exchangeTxs []models.ExchangeTransaction, positions []models.TokenPosition) []models.DataHygieneIssue {
	issues := []models.DataHygieneIssue{}
	issues = append(issues, detectDuplicates(manualEntries, exchangeTxs)...)
	issues = append(issues, detectTickerMismatches(manualEntries, exchangeTxs)...)
	issues = append(issues, detectImpossibleQuantities(manualEntries, exchangeTxs, positions)...)
	issues = append(issues, detectMissingPrices(manualEntries, exchangeTxs)...)
	issues = append(issues, p.detectFutureDates(manualEntries, exchangeTxs)...)
	return issues
}

// recordKey is the composite duplicate key. It is shared across both
// input kinds so a manual entry and an exchange record describing the
// same token/date/amount collide on purpose.
func recordKey(token, date string, amount float64) string {
	return token + "|" + date + "|" + strconv.FormatFloat(amount, 'f', -1, 64)
}

func detectDuplicates(manualEntries []models.ManualEntry, exchangeTxs []models.ExchangeTransaction) []models.DataHygieneIssue {
	var issues []models.DataHygieneIssue
	seen := make(map[string]bool)

	emit := func(token, date string, amount float64) {
		key := recordKey(token, date, amount)
		if seen[key] {
			issues = append(issues, models.DataHygieneIssue{
				Type:           models.IssueTypeDuplicate,
				Severity:       models.SeverityWarning,
				Description:    fmt.Sprintf("Duplicate record for %s on %s (amount %v)", token, date, amount),
				AffectedTokens: []string{token},
				SuggestedFix:   "Remove the duplicate record or correct its date/amount if it is a distinct trade",
			})
			return
		}
		seen[key] = true
	}

	for _, entry := range manualEntries {
		emit(entry.Token, entry.BuyDate, entry.Amount)
	}
	for _, tx := range exchangeTxs {
		emit(tx.Token, tx.Date, tx.Amount)
	}
	return issues
}

func detectTickerMismatches(manualEntries []models.ManualEntry, exchangeTxs []models.ExchangeTransaction) []models.DataHygieneIssue {
	variants := make(map[string][]string) // normalized -> raw spellings, first-seen order
	var order []string

	record := func(raw string) {
		normalized := strings.ToUpper(strings.TrimSpace(raw))
		existing, seen := variants[normalized]
		if !seen {
			order = append(order, normalized)
		}
		for _, v := range existing {
			if v == raw {
				return
			}
		}
		variants[normalized] = append(existing, raw)
	}

	for _, entry := range manualEntries {
		record(entry.Token)
	}
	for _, tx := range exchangeTxs {
		record(tx.Token)
	}

	var issues []models.DataHygieneIssue
	for _, normalized := range order {
		raws := variants[normalized]
		if len(raws) < 2 {
			continue
		}
		issues = append(issues, models.DataHygieneIssue{
			Type:           models.IssueTypeTickerMismatch,
			Severity:       models.SeverityWarning,
			Description:    fmt.Sprintf("Token %s is spelled %d different ways: %s", normalized, len(raws), strings.Join(raws, ", ")),
			AffectedTokens: raws,
			SuggestedFix:   fmt.Sprintf("Use the canonical spelling %s for all records of this asset", normalized),
		})
	}
	return issues
}

func detectImpossibleQuantities(manualEntries []models.ManualEntry, exchangeTxs []models.ExchangeTransaction, positions []models.TokenPosition) []models.DataHygieneIssue {
	var issues []models.DataHygieneIssue

	for _, entry := range manualEntries {
		if entry.Amount <= 0 {
			issues = append(issues, models.DataHygieneIssue{
				Type:           models.IssueTypeImpossibleQty,
				Severity:       models.SeverityError,
				Description:    fmt.Sprintf("Manual entry for %s on %s has non-positive amount %v", entry.Token, entry.BuyDate, entry.Amount),
				AffectedTokens: []string{entry.Token},
				SuggestedFix:   "Enter the actual acquired amount; it must be greater than zero",
			})
		}
	}
	for _, tx := range exchangeTxs {
		if tx.Amount <= 0 {
			issues = append(issues, models.DataHygieneIssue{
				Type:           models.IssueTypeImpossibleQty,
				Severity:       models.SeverityError,
				Description:    fmt.Sprintf("Exchange %s of %s on %s has non-positive amount %v", tx.Type, tx.Token, tx.Date, tx.Amount),
				AffectedTokens: []string{tx.Token},
				SuggestedFix:   "Re-export the transaction history or correct the amount",
			})
		}
	}
	for _, pos := range positions {
		if pos.Amount < 0 {
			issues = append(issues, models.DataHygieneIssue{
				Type:           models.IssueTypeImpossibleQty,
				Severity:       models.SeverityError,
				Description:    fmt.Sprintf("Position for %s holds %v: more was sold than ever bought", pos.Token, pos.Amount),
				AffectedTokens: []string{pos.Token},
				SuggestedFix:   "Add the missing buy records for this token",
			})
		}
	}
	return issues
}

func detectMissingPrices(manualEntries []models.ManualEntry, exchangeTxs []models.ExchangeTransaction) []models.DataHygieneIssue {
	var issues []models.DataHygieneIssue

	for _, entry := range manualEntries {
		if entry.BuyPrice == 0 && entry.CurrentPrice == 0 {
			issues = append(issues, models.DataHygieneIssue{
				Type:           models.IssueTypeMissingPrice,
				Severity:       models.SeverityWarning,
				Description:    fmt.Sprintf("Manual entry for %s on %s has neither a buy price nor a current price", entry.Token, entry.BuyDate),
				AffectedTokens: []string{entry.Token},
				SuggestedFix:   "Add the purchase price so cost basis can be computed",
			})
		}
	}
	for _, tx := range exchangeTxs {
		if (tx.Type == models.TradeTypeBuy || tx.Type == models.TradeTypeSell) && tx.Price == 0 {
			issues = append(issues, models.DataHygieneIssue{
				Type:           models.IssueTypeMissingPrice,
				Severity:       models.SeverityWarning,
				Description:    fmt.Sprintf("Exchange %s of %s on %s has no price", tx.Type, tx.Token, tx.Date),
				AffectedTokens: []string{tx.Token},
				SuggestedFix:   "Fill in the execution price from the exchange's trade history",
			})
		}
	}
	return issues
}

func (p *HygieneProcessor) detectFutureDates(manualEntries []models.ManualEntry, exchangeTxs []models.ExchangeTransaction) []models.DataHygieneIssue {
	now := p.now()
	var issues []models.DataHygieneIssue

	emit := func(token, date, kind string) {
		parsed := utils.ParseDate(date)
		if parsed.IsZero() || !parsed.After(now) {
			return
		}
		issues = append(issues, models.DataHygieneIssue{
			Type:           models.IssueTypeFutureDate,
			Severity:       models.SeverityWarning,
			Description:    fmt.Sprintf("%s for %s is dated %s, which is in the future", kind, token, date),
			AffectedTokens: []string{token},
			SuggestedFix:   "Correct the date; records cannot be dated after today",
		})
	}

	for _, entry := range manualEntries {
		emit(entry.Token, entry.BuyDate, "Manual entry")
	}
	for _, tx := range exchangeTxs {
		emit(tx.Token, tx.Date, "Exchange transaction")
	}
	return issues
}
