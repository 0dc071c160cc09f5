package models

// ManualEntry represents a self-reported acquisition. It is always
// treated as a buy when trades are normalized.
type ManualEntry struct {
	ID           string  `json:"id,omitempty"` // external uuid, set on insert
	Token        string  `json:"token"`
	BuyDate      string  `json:"buy_date"` // YYYY-MM-DD
	Amount       float64 `json:"amount"`
	BuyPrice     float64 `json:"buy_price"`
	CurrentPrice float64 `json:"current_price,omitempty"` // optional user-supplied price
}

// ExchangeTransaction represents one row of an exchange's public
// transaction history export.
type ExchangeTransaction struct {
	ID     string  `json:"id,omitempty"`
	Token  string  `json:"token"`
	Date   string  `json:"date"` // YYYY-MM-DD
	Type   string  `json:"type"` // "buy" or "sell"
	Amount float64 `json:"amount"`
	Price  float64 `json:"price"`
}

const (
	TradeTypeBuy  = "buy"
	TradeTypeSell = "sell"
)

// Trade is the normalized internal shape both input kinds are merged
// into. Trades are immutable once ingested; downstream processors must
// not modify them.
type Trade struct {
	Token  string  `json:"token"`
	Date   string  `json:"date"`
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
	Price  float64 `json:"price"`
}

// PriceData is a resolved market price with its provenance.
type PriceData struct {
	Price     float64 `json:"price"`
	Source    string  `json:"source"` // e.g. "coingecko", "user"
	Timestamp string  `json:"timestamp"`
	Change24h float64 `json:"change_24h,omitempty"`
	Change7d  float64 `json:"change_7d,omitempty"`
}

// TokenPosition is the fully computed position for one token. It is
// rebuilt from scratch on every analyze call and carries no identity
// across calls.
type TokenPosition struct {
	Token         string  `json:"token"`
	Symbol        string  `json:"symbol"`
	Amount        float64 `json:"amount"`
	AvgCostWAC    float64 `json:"avg_cost_wac"`
	AvgCostFIFO   float64 `json:"avg_cost_fifo"`
	CurrentPrice  float64 `json:"current_price"`
	PriceSource   string  `json:"price_source"`
	TotalValue    float64 `json:"total_value"`
	CostBasis     float64 `json:"cost_basis"`
	PnLUnrealized float64 `json:"pnl_unrealized"`
	PnLRealized   float64 `json:"pnl_realized"`
	AllocationPct float64 `json:"allocation_pct"`
	WinLossRatio  float64 `json:"win_loss_ratio"`
	FirstBuyDate  string  `json:"first_buy_date,omitempty"`
	LastTradeDate string  `json:"last_trade_date,omitempty"`
	Trades        []Trade `json:"trades"`
}

// PortfolioSummary aggregates all positions into totals and rankings.
type PortfolioSummary struct {
	TotalValue            float64         `json:"total_value"`
	TotalCostBasis        float64         `json:"total_cost_basis"`
	TotalPnLUnrealized    float64         `json:"total_pnl_unrealized"`
	TotalPnLRealized      float64         `json:"total_pnl_realized"`
	TotalPnL              float64         `json:"total_pnl"`
	ROIPct                float64         `json:"roi_pct"`
	TokenCount            int             `json:"token_count"`
	TopHoldings           []TokenPosition `json:"top_holdings"`
	BestPerformers        []TokenPosition `json:"best_performers"`
	WorstPerformers       []TokenPosition `json:"worst_performers"`
	ConcentrationWarnings []TokenPosition `json:"concentration_warnings"`
	SummaryText           string          `json:"summary_text"`
}

const (
	IssueTypeDuplicate      = "duplicate"
	IssueTypeTickerMismatch = "ticker_mismatch"
	IssueTypeImpossibleQty  = "impossible_qty"
	IssueTypeMissingPrice   = "missing_price"
	IssueTypeFutureDate     = "future_date"

	SeverityWarning = "warning"
	SeverityError   = "error"
)

// DataHygieneIssue is a pure diagnostic value. Issues never block the
// analytics computation, even at severity "error".
type DataHygieneIssue struct {
	Type           string   `json:"type"`
	Severity       string   `json:"severity"`
	Description    string   `json:"description"`
	AffectedTokens []string `json:"affected_tokens"`
	SuggestedFix   string   `json:"suggested_fix"`
}

// AnalyzeResult is the full output of one portfolio analysis.
type AnalyzeResult struct {
	Positions     []TokenPosition    `json:"positions"`
	Summary       PortfolioSummary   `json:"summary"`
	HygieneIssues []DataHygieneIssue `json:"hygiene_issues"`
}
