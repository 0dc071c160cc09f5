package services

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/coinsensei/backend/src/logger"
	"github.com/username/coinsensei/backend/src/models"
	"github.com/username/coinsensei/backend/src/processors"
	"github.com/username/coinsensei/backend/src/utils"
)

const ckAnalyzeResult = "res_analyze_%s"

type portfolioServiceImpl struct {
	positionProcessor processors.PositionCalculator
	summaryProcessor  processors.SummaryAggregator
	hygieneProcessor  processors.HygieneDetector
	priceService      PriceService
	resultCache       *cache.Cache
}

func NewPortfolioService(
	positionProcessor processors.PositionCalculator,
	summaryProcessor processors.SummaryAggregator,
	hygieneProcessor processors.HygieneDetector,
	priceService PriceService,
	resultCache *cache.Cache,
) PortfolioService {
	return &portfolioServiceImpl{
		positionProcessor: positionProcessor,
		summaryProcessor:  summaryProcessor,
		hygieneProcessor:  hygieneProcessor,
		priceService:      priceService,
		resultCache:       resultCache,
	}
}

// Analyze computes the full read-only snapshot: positions, summary and
// hygiene diagnostics. Price overrides are consulted before the price
// service; tokens without any resolvable non-zero price are dropped
// silently, which is documented behavior. No network failure escapes
// this method as an error.
func (s *portfolioServiceImpl) Analyze(ctx context.Context, manualEntries []models.ManualEntry, exchangeTxs []models.ExchangeTransaction, priceOverrides map[string]float64) (*models.AnalyzeResult, error) {
	startTime := time.Now()

	if err := validateInput(manualEntries, exchangeTxs); err != nil {
		return nil, err
	}

	cacheKey, cacheable := s.resultCacheKey(manualEntries, exchangeTxs, priceOverrides)
	if cacheable {
		if cached, ok := s.resultCache.Get(cacheKey); ok {
			logger.L.Debug("Analyze served from result cache")
			return cached.(*models.AnalyzeResult), nil
		}
	}

	trades := processors.CombineTrades(manualEntries, exchangeTxs)
	tokenGroups, tokenOrder := processors.GroupTradesByToken(trades)

	tokenIDs := make([]string, 0, len(tokenOrder))
	for _, token := range tokenOrder {
		tokenIDs = append(tokenIDs, GetCoinGeckoID(token))
	}
	prices, err := s.priceService.GetPrices(ctx, tokenIDs)
	if err != nil {
		// Degrade: tokens without a cached price fall out of the
		// position list below.
		logger.L.Warn("Price resolution incomplete", "error", err)
	}

	positions := []models.TokenPosition{}
	for _, token := range tokenOrder {
		currentPrice, priceSource := resolvePrice(token, priceOverrides, prices)
		if currentPrice == 0 {
			logger.L.Debug("Dropping token with unresolvable price", "token", token)
			continue
		}
		positions = append(positions, s.positionProcessor.Process(token, tokenGroups[token], currentPrice, priceSource))
	}

	positions, summary := s.summaryProcessor.Process(positions)
	issues := s.hygieneProcessor.DetectIssues(manualEntries, exchangeTxs, positions)

	result := &models.AnalyzeResult{
		Positions:     positions,
		Summary:       summary,
		HygieneIssues: issues,
	}
	if cacheable {
		s.resultCache.Set(cacheKey, result, cache.DefaultExpiration)
	}

	logger.L.Info("Analyze complete",
		"tokens", len(tokenOrder),
		"positions", len(positions),
		"hygieneIssues", len(issues),
		"duration", time.Since(startTime))
	return result, nil
}

// resolvePrice picks the current price for a token: a caller-supplied
// override wins, then the resolved market price. Zero means the token
// has no usable price.
func resolvePrice(token string, overrides map[string]float64, prices map[string]models.PriceData) (float64, string) {
	if override, ok := overrides[token]; ok && override > 0 {
		return override, PriceSourceUser
	}
	if priceData, ok := prices[GetCoinGeckoID(token)]; ok && priceData.Price > 0 {
		return priceData.Price, priceData.Source
	}
	return 0, ""
}

// validateInput rejects structurally malformed records up front.
// Questionable-but-shaped data (negative amounts, future dates) is the
// hygiene processor's territory and never an error.
func validateInput(manualEntries []models.ManualEntry, exchangeTxs []models.ExchangeTransaction) error {
	for i, entry := range manualEntries {
		if entry.Token == "" {
			return fmt.Errorf("%w: manual entry %d has no token", ErrInvalidInput, i)
		}
		if entry.BuyDate == "" || utils.ParseDate(entry.BuyDate).IsZero() {
			return fmt.Errorf("%w: manual entry %d for %s has unparseable buy_date %q", ErrInvalidInput, i, entry.Token, entry.BuyDate)
		}
	}
	for i, tx := range exchangeTxs {
		if tx.Token == "" {
			return fmt.Errorf("%w: exchange transaction %d has no token", ErrInvalidInput, i)
		}
		if tx.Date == "" || utils.ParseDate(tx.Date).IsZero() {
			return fmt.Errorf("%w: exchange transaction %d for %s has unparseable date %q", ErrInvalidInput, i, tx.Token, tx.Date)
		}
	}
	return nil
}

// resultCacheKey hashes the full input so identical analyze calls
// within the cache TTL reuse the computed snapshot.
func (s *portfolioServiceImpl) resultCacheKey(manualEntries []models.ManualEntry, exchangeTxs []models.ExchangeTransaction, priceOverrides map[string]float64) (string, bool) {
	if s.resultCache == nil {
		return "", false
	}
	hash, err := utils.GenerateETag(struct {
		Manual    []models.ManualEntry         `json:"manual"`
		Exchange  []models.ExchangeTransaction `json:"exchange"`
		Overrides map[string]float64           `json:"overrides"`
	}{manualEntries, exchangeTxs, priceOverrides})
	if err != nil {
		return "", false
	}
	return fmt.Sprintf(ckAnalyzeResult, hash), true
}
