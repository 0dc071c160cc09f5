package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/coinsensei/backend/src/logger"
	"github.com/username/coinsensei/backend/src/models"
	"golang.org/x/time/rate"
)

const (
	DefaultCoinGeckoBaseURL = "https://api.coingecko.com/api/v3"
	PriceSourceCoinGecko    = "coingecko"
	PriceSourceUser         = "user"

	// The free CoinGecko tier allows roughly 30 calls/minute; stay
	// well under it.
	requestsPerInterval = 2 * time.Second
)

// priceServiceImpl resolves prices through CoinGecko's /simple/price
// endpoint. The cache is constructor-injected so tests run isolated
// and concurrent analyses share resolved prices, which is safe since
// price data is not user-specific.
type priceServiceImpl struct {
	httpClient   *http.Client
	baseURL      string
	priceCache   *cache.Cache
	limiter      *rate.Limiter
	timeout      time.Duration
	batchTimeout time.Duration
}

func NewPriceService(baseURL string, priceCache *cache.Cache, timeout, batchTimeout time.Duration) PriceService {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoBaseURL
	}
	return &priceServiceImpl{
		httpClient:   &http.Client{Timeout: batchTimeout},
		baseURL:      strings.TrimRight(baseURL, "/"),
		priceCache:   priceCache,
		limiter:      rate.NewLimiter(rate.Every(requestsPerInterval), 1),
		timeout:      timeout,
		batchTimeout: batchTimeout,
	}
}

// GetPrice resolves a single token identifier.
func (s *priceServiceImpl) GetPrice(ctx context.Context, tokenID string) (models.PriceData, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prices, err := s.GetPrices(ctx, []string{tokenID})
	if err != nil {
		return models.PriceData{}, err
	}
	priceData, ok := prices[tokenID]
	if !ok {
		return models.PriceData{}, fmt.Errorf("%w: %s", ErrPriceUnavailable, tokenID)
	}
	return priceData, nil
}

// GetPrices resolves a batch of token identifiers in one upstream
// call. Cached entries are served without touching the network.
// Tokens CoinGecko does not know are absent from the result; a failed
// fetch returns whatever the cache held plus the error for logging.
func (s *priceServiceImpl) GetPrices(ctx context.Context, tokenIDs []string) (map[string]models.PriceData, error) {
	result := make(map[string]models.PriceData, len(tokenIDs))
	var missing []string
	seen := make(map[string]bool)

	for _, id := range tokenIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if cached, ok := s.priceCache.Get(cacheKey(id)); ok {
			result[id] = cached.(models.PriceData)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := s.fetchSimplePrices(ctx, missing)
	if err != nil {
		logger.L.Warn("CoinGecko fetch failed; continuing with cached prices only", "missing", len(missing), "error", err)
		return result, err
	}
	for id, priceData := range fetched {
		s.priceCache.Set(cacheKey(id), priceData, cache.DefaultExpiration)
		result[id] = priceData
	}
	return result, nil
}

func (s *priceServiceImpl) fetchSimplePrices(ctx context.Context, tokenIDs []string) (map[string]models.PriceData, error) {
	ctx, cancel := context.WithTimeout(ctx, s.batchTimeout)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	query := url.Values{}
	query.Set("ids", strings.Join(tokenIDs, ","))
	query.Set("vs_currencies", "usd")
	query.Set("include_24hr_change", "true")
	reqURL := fmt.Sprintf("%s/simple/price?%s", s.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coingecko request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko returned status %d", resp.StatusCode)
	}

	// {"bitcoin": {"usd": 64000.1, "usd_24h_change": -1.2}, ...}
	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode coingecko response: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	prices := make(map[string]models.PriceData, len(payload))
	for _, id := range tokenIDs {
		quote, ok := payload[id]
		if !ok {
			continue
		}
		price := quote["usd"]
		if price == 0 {
			continue
		}
		prices[id] = models.PriceData{
			Price:     price,
			Source:    PriceSourceCoinGecko,
			Timestamp: now,
			Change24h: quote["usd_24h_change"],
		}
	}
	return prices, nil
}

func cacheKey(tokenID string) string {
	return "price_" + tokenID
}
