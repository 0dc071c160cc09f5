package services

import (
	"context"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/coinsensei/backend/src/models"
	"github.com/username/coinsensei/backend/src/processors"
)

// stubPriceService serves a fixed price table and counts lookups.
type stubPriceService struct {
	prices map[string]models.PriceData
	calls  int
}

func (s *stubPriceService) GetPrice(ctx context.Context, tokenID string) (models.PriceData, error) {
	prices, _ := s.GetPrices(ctx, []string{tokenID})
	if priceData, ok := prices[tokenID]; ok {
		return priceData, nil
	}
	return models.PriceData{}, ErrPriceUnavailable
}

func (s *stubPriceService) GetPrices(ctx context.Context, tokenIDs []string) (map[string]models.PriceData, error) {
	s.calls++
	result := make(map[string]models.PriceData)
	for _, id := range tokenIDs {
		if priceData, ok := s.prices[id]; ok {
			result[id] = priceData
		}
	}
	return result, nil
}

func newTestPortfolioService(prices map[string]models.PriceData) (PortfolioService, *stubPriceService) {
	stub := &stubPriceService{prices: prices}
	svc := NewPortfolioService(
		processors.NewPositionProcessor(),
		processors.NewSummaryProcessor(25),
		processors.NewHygieneProcessor(func() time.Time {
			return time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
		}),
		stub,
		cache.New(time.Minute, 2*time.Minute),
	)
	return svc, stub
}

func coingeckoPrice(price float64) models.PriceData {
	return models.PriceData{Price: price, Source: PriceSourceCoinGecko, Timestamp: "2023-06-15T12:00:00Z"}
}

func TestAnalyze_EndToEnd(t *testing.T) {
	manual := []models.ManualEntry{
		{Token: "ETH", BuyDate: "2023-01-01", Amount: 10, BuyPrice: 100},
	}
	exchange := []models.ExchangeTransaction{
		{Token: "ETH", Date: "2023-02-01", Type: "sell", Amount: 4, Price: 200},
	}
	svc, _ := newTestPortfolioService(map[string]models.PriceData{
		"ethereum": coingeckoPrice(150),
	})

	result, err := svc.Analyze(context.Background(), manual, exchange, nil)

	require.NoError(t, err)
	require.Len(t, result.Positions, 1)
	pos := result.Positions[0]
	assert.InDelta(t, 6, pos.Amount, 1e-9)
	assert.InDelta(t, 600, pos.CostBasis, 1e-9)
	assert.InDelta(t, 100, pos.AvgCostWAC, 1e-9)
	assert.InDelta(t, 400, pos.PnLRealized, 1e-9)
	assert.InDelta(t, 900, pos.TotalValue, 1e-9)
	assert.InDelta(t, 300, pos.PnLUnrealized, 1e-9)
	assert.InDelta(t, 100, pos.AllocationPct, 1e-9)
	assert.Equal(t, PriceSourceCoinGecko, pos.PriceSource)
	assert.Equal(t, 1, result.Summary.TokenCount)
	assert.Empty(t, result.HygieneIssues)
}

func TestAnalyze_PriceOverrideWins(t *testing.T) {
	manual := []models.ManualEntry{
		{Token: "ETH", BuyDate: "2023-01-01", Amount: 1, BuyPrice: 100},
	}
	svc, _ := newTestPortfolioService(map[string]models.PriceData{
		"ethereum": coingeckoPrice(150),
	})

	result, err := svc.Analyze(context.Background(), manual, nil, map[string]float64{"ETH": 500})

	require.NoError(t, err)
	require.Len(t, result.Positions, 1)
	assert.Equal(t, 500.0, result.Positions[0].CurrentPrice)
	assert.Equal(t, PriceSourceUser, result.Positions[0].PriceSource)
}

func TestAnalyze_UnresolvableTokenIsDroppedSilently(t *testing.T) {
	manual := []models.ManualEntry{
		{Token: "ETH", BuyDate: "2023-01-01", Amount: 1, BuyPrice: 100},
		{Token: "OBSCURECOIN", BuyDate: "2023-01-01", Amount: 100, BuyPrice: 1},
	}
	svc, _ := newTestPortfolioService(map[string]models.PriceData{
		"ethereum": coingeckoPrice(150),
	})

	result, err := svc.Analyze(context.Background(), manual, nil, nil)

	require.NoError(t, err)
	require.Len(t, result.Positions, 1)
	assert.Equal(t, "ETH", result.Positions[0].Token)
}

func TestAnalyze_RawSpellingsFormSeparatePositions(t *testing.T) {
	// "BTC" and "btc" resolve to the same CoinGecko id but stay two
	// positions; the mismatch is reported, not corrected.
	manual := []models.ManualEntry{
		{Token: "BTC", BuyDate: "2023-01-01", Amount: 1, BuyPrice: 20000},
		{Token: "btc", BuyDate: "2023-01-02", Amount: 2, BuyPrice: 21000},
	}
	svc, _ := newTestPortfolioService(map[string]models.PriceData{
		"bitcoin": coingeckoPrice(25000),
	})

	result, err := svc.Analyze(context.Background(), manual, nil, nil)

	require.NoError(t, err)
	assert.Len(t, result.Positions, 2)

	var mismatches int
	for _, issue := range result.HygieneIssues {
		if issue.Type == models.IssueTypeTickerMismatch {
			mismatches++
		}
	}
	assert.Equal(t, 1, mismatches)
}

func TestAnalyze_InvalidInputFailsFast(t *testing.T) {
	svc, _ := newTestPortfolioService(nil)

	_, err := svc.Analyze(context.Background(), []models.ManualEntry{
		{Token: "", BuyDate: "2023-01-01", Amount: 1, BuyPrice: 100},
	}, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Analyze(context.Background(), nil, []models.ExchangeTransaction{
		{Token: "BTC", Date: "not-a-date", Type: "buy", Amount: 1, Price: 100},
	}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyze_EmptyInputYieldsEmptySnapshot(t *testing.T) {
	svc, _ := newTestPortfolioService(nil)

	result, err := svc.Analyze(context.Background(), nil, nil, nil)

	require.NoError(t, err)
	assert.Empty(t, result.Positions)
	assert.Equal(t, 0, result.Summary.TokenCount)
	assert.Equal(t, 0.0, result.Summary.TotalValue)
	assert.Empty(t, result.HygieneIssues)
}

func TestAnalyze_ResultCacheShortCircuitsRecompute(t *testing.T) {
	manual := []models.ManualEntry{
		{Token: "ETH", BuyDate: "2023-01-01", Amount: 1, BuyPrice: 100},
	}
	svc, stub := newTestPortfolioService(map[string]models.PriceData{
		"ethereum": coingeckoPrice(150),
	})

	first, err := svc.Analyze(context.Background(), manual, nil, nil)
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), manual, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, stub.calls, "second call must hit the result cache")
}

func TestAnalyze_HygieneRunsEvenWhenAllPricesMissing(t *testing.T) {
	manual := []models.ManualEntry{
		{Token: "GHOST", BuyDate: "2023-01-01", Amount: -1},
	}
	svc, _ := newTestPortfolioService(nil)

	result, err := svc.Analyze(context.Background(), manual, nil, nil)

	require.NoError(t, err)
	assert.Empty(t, result.Positions)
	require.NotEmpty(t, result.HygieneIssues)

	var types []string
	for _, issue := range result.HygieneIssues {
		types = append(types, issue.Type)
	}
	assert.Contains(t, types, models.IssueTypeImpossibleQty)
	assert.Contains(t, types, models.IssueTypeMissingPrice)
}
