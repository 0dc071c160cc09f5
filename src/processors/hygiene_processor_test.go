package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/coinsensei/backend/src/models"
)

var hygieneNow = time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestHygieneProcessor() *HygieneProcessor {
	return NewHygieneProcessor(func() time.Time { return hygieneNow })
}

func issuesOfType(issues []models.DataHygieneIssue, issueType string) []models.DataHygieneIssue {
	var filtered []models.DataHygieneIssue
	for _, issue := range issues {
		if issue.Type == issueType {
			filtered = append(filtered, issue)
		}
	}
	return filtered
}

func TestHygiene_DuplicateManualEntries(t *testing.T) {
	manual := []models.ManualEntry{
		{Token: "BTC", BuyDate: "2023-01-01", Amount: 1, BuyPrice: 20000},
		{Token: "BTC", BuyDate: "2023-01-01", Amount: 1, BuyPrice: 20000},
	}

	issues := newTestHygieneProcessor().DetectIssues(manual, nil, nil)

	duplicates := issuesOfType(issues, models.IssueTypeDuplicate)
	require.Len(t, duplicates, 1)
	assert.Equal(t, models.SeverityWarning, duplicates[0].Severity)
	assert.Equal(t, []string{"BTC"}, duplicates[0].AffectedTokens)
}

func TestHygiene_DuplicateAcrossSources(t *testing.T) {
	// A manual entry and an exchange record with the same
	// token/date/amount share one running key and collide.
	manual := []models.ManualEntry{
		{Token: "ETH", BuyDate: "2023-02-01", Amount: 4, BuyPrice: 1500},
	}
	exchange := []models.ExchangeTransaction{
		{Token: "ETH", Date: "2023-02-01", Type: "buy", Amount: 4, Price: 1500},
	}

	issues := newTestHygieneProcessor().DetectIssues(manual, exchange, nil)

	require.Len(t, issuesOfType(issues, models.IssueTypeDuplicate), 1)
}

func TestHygiene_NoDuplicateForDistinctRecords(t *testing.T) {
	manual := []models.ManualEntry{
		{Token: "BTC", BuyDate: "2023-01-01", Amount: 1, BuyPrice: 20000},
		{Token: "BTC", BuyDate: "2023-01-02", Amount: 1, BuyPrice: 20000},
		{Token: "BTC", BuyDate: "2023-01-01", Amount: 2, BuyPrice: 20000},
	}

	issues := newTestHygieneProcessor().DetectIssues(manual, nil, nil)

	assert.Empty(t, issuesOfType(issues, models.IssueTypeDuplicate))
}

func TestHygiene_TickerMismatch(t *testing.T) {
	manual := []models.ManualEntry{
		{Token: "ETH", BuyDate: "2023-01-01", Amount: 1, BuyPrice: 1500},
		{Token: "eth", BuyDate: "2023-01-02", Amount: 2, BuyPrice: 1600},
	}

	issues := newTestHygieneProcessor().DetectIssues(manual, nil, nil)

	mismatches := issuesOfType(issues, models.IssueTypeTickerMismatch)
	require.Len(t, mismatches, 1)
	assert.ElementsMatch(t, []string{"ETH", "eth"}, mismatches[0].AffectedTokens)
	assert.Contains(t, mismatches[0].SuggestedFix, "ETH")
}

func TestHygiene_ImpossibleQuantity(t *testing.T) {
	manual := []models.ManualEntry{
		{Token: "SOL", BuyDate: "2023-01-01", Amount: -5, BuyPrice: 20},
	}

	issues := newTestHygieneProcessor().DetectIssues(manual, nil, nil)

	impossible := issuesOfType(issues, models.IssueTypeImpossibleQty)
	require.Len(t, impossible, 1)
	assert.Equal(t, models.SeverityError, impossible[0].Severity)
	assert.Equal(t, []string{"SOL"}, impossible[0].AffectedTokens)
}

func TestHygiene_NegativePositionAmount(t *testing.T) {
	positions := []models.TokenPosition{
		{Token: "ADA", Symbol: "ADA", Amount: -3},
	}

	issues := newTestHygieneProcessor().DetectIssues(nil, nil, positions)

	impossible := issuesOfType(issues, models.IssueTypeImpossibleQty)
	require.Len(t, impossible, 1)
	assert.Equal(t, []string{"ADA"}, impossible[0].AffectedTokens)
}

func TestHygiene_MissingPrices(t *testing.T) {
	manual := []models.ManualEntry{
		{Token: "BTC", BuyDate: "2023-01-01", Amount: 1},                     // neither price set
		{Token: "ETH", BuyDate: "2023-01-01", Amount: 1, CurrentPrice: 1500}, // current price set, fine
	}
	exchange := []models.ExchangeTransaction{
		{Token: "SOL", Date: "2023-01-01", Type: "sell", Amount: 2},           // zero price
		{Token: "DOT", Date: "2023-01-01", Type: "buy", Amount: 2, Price: 10}, // fine
	}

	issues := newTestHygieneProcessor().DetectIssues(manual, exchange, nil)

	missing := issuesOfType(issues, models.IssueTypeMissingPrice)
	require.Len(t, missing, 2)
	assert.Equal(t, []string{"BTC"}, missing[0].AffectedTokens)
	assert.Equal(t, []string{"SOL"}, missing[1].AffectedTokens)
}

func TestHygiene_FutureDateBoundary(t *testing.T) {
	dayAfter := hygieneNow.AddDate(0, 0, 1).Format("2006-01-02")
	dayBefore := hygieneNow.AddDate(0, 0, -1).Format("2006-01-02")

	future := []models.ExchangeTransaction{
		{Token: "BTC", Date: dayAfter, Type: "buy", Amount: 1, Price: 100},
	}
	past := []models.ExchangeTransaction{
		{Token: "BTC", Date: dayBefore, Type: "buy", Amount: 1, Price: 100},
	}

	futureIssues := newTestHygieneProcessor().DetectIssues(nil, future, nil)
	pastIssues := newTestHygieneProcessor().DetectIssues(nil, past, nil)

	assert.Len(t, issuesOfType(futureIssues, models.IssueTypeFutureDate), 1)
	assert.Empty(t, issuesOfType(pastIssues, models.IssueTypeFutureDate))
}

func TestHygiene_DetectionIsIdempotent(t *testing.T) {
	manual := []models.ManualEntry{
		{Token: "BTC", BuyDate: "2023-01-01", Amount: 1},
		{Token: "BTC", BuyDate: "2023-01-01", Amount: 1},
		{Token: "btc", BuyDate: "2023-01-02", Amount: -2, BuyPrice: 100},
	}
	exchange := []models.ExchangeTransaction{
		{Token: "BTC", Date: "2099-01-01", Type: "sell", Amount: 1},
	}
	positions := []models.TokenPosition{{Token: "BTC", Amount: -1}}

	processor := newTestHygieneProcessor()
	first := processor.DetectIssues(manual, exchange, positions)
	second := processor.DetectIssues(manual, exchange, positions)

	assert.Equal(t, first, second)
}

func TestHygiene_DetectorOrderIsFixed(t *testing.T) {
	// One finding per detector; the concatenation order is part of
	// the contract.
	manual := []models.ManualEntry{
		{Token: "BTC", BuyDate: "2023-01-01", Amount: 1, BuyPrice: 100},
		{Token: "BTC", BuyDate: "2023-01-01", Amount: 1, BuyPrice: 100},
		{Token: "btc", BuyDate: "2023-01-02", Amount: -2},
	}
	exchange := []models.ExchangeTransaction{
		{Token: "ETH", Date: "2099-01-01", Type: "buy", Amount: 1, Price: 100},
	}

	issues := newTestHygieneProcessor().DetectIssues(manual, exchange, nil)

	var types []string
	for _, issue := range issues {
		types = append(types, issue.Type)
	}
	assert.Equal(t, []string{
		models.IssueTypeDuplicate,
		models.IssueTypeTickerMismatch,
		models.IssueTypeImpossibleQty,
		models.IssueTypeMissingPrice,
		models.IssueTypeFutureDate,
	}, types)
}
