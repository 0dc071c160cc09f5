package services

import "strings"

// coinGeckoIDs maps common ticker symbols to CoinGecko identifiers.
// Symbols not listed fall back to their lowercased form, which happens
// to be correct for many smaller assets.
var coinGeckoIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"USDT":  "tether",
	"BNB":   "binancecoin",
	"SOL":   "solana",
	"XRP":   "ripple",
	"USDC":  "usd-coin",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"AVAX":  "avalanche-2",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"LINK":  "chainlink",
	"LTC":   "litecoin",
	"UNI":   "uniswap",
	"ATOM":  "cosmos",
	"XLM":   "stellar",
	"TRX":   "tron",
	"SHIB":  "shiba-inu",
	"NEAR":  "near",
	"APT":   "aptos",
	"ARB":   "arbitrum",
	"OP":    "optimism",
	"FIL":   "filecoin",
	"XMR":   "monero",
}

// GetCoinGeckoID resolves a ticker symbol to its CoinGecko identifier.
func GetCoinGeckoID(symbol string) string {
	if id, ok := coinGeckoIDs[strings.ToUpper(strings.TrimSpace(symbol))]; ok {
		return id
	}
	return strings.ToLower(strings.TrimSpace(symbol))
}
