package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/coinsensei/backend/src/database"
	"github.com/username/coinsensei/backend/src/logger"
	"github.com/username/coinsensei/backend/src/models"
	"github.com/username/coinsensei/backend/src/services"
	"github.com/username/coinsensei/backend/src/utils"
)

type PortfolioHandler struct {
	portfolioService services.PortfolioService
	maxBodyBytes     int64
}

func NewPortfolioHandler(portfolioService services.PortfolioService, maxBodyBytes int64) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		maxBodyBytes:     maxBodyBytes,
	}
}

type analyzeRequest struct {
	ManualEntries        []models.ManualEntry         `json:"manual_entries"`
	ExchangeTransactions []models.ExchangeTransaction `json:"exchange_transactions"`
	PriceOverrides       map[string]float64           `json:"price_overrides,omitempty"`
}

// HandleAnalyze computes a snapshot for an inline payload without
// touching stored records.
func (h *PortfolioHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	result, err := h.portfolioService.Analyze(r.Context(), req.ManualEntries, req.ExchangeTransactions, req.PriceOverrides)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		utils.SendJSONError(w, fmt.Sprintf("error computing portfolio: %v", err), http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, result)
}

// HandleGetPortfolio analyzes the caller's stored records. Supports
// ETag revalidation since recomputation is the expensive path.
func (h *PortfolioHandler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	result, ok := h.analyzeStored(w, r)
	if !ok {
		return
	}

	etag, err := utils.GenerateETag(result)
	if err == nil {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	} else {
		logger.L.Warn("Failed to generate portfolio ETag", "error", err)
	}
	utils.WriteJSON(w, result)
}

// HandleGetHygiene returns only the data-quality diagnostics for the
// caller's stored records.
func (h *PortfolioHandler) HandleGetHygiene(w http.ResponseWriter, r *http.Request) {
	result, ok := h.analyzeStored(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, map[string][]models.DataHygieneIssue{"hygiene_issues": result.HygieneIssues})
}

func (h *PortfolioHandler) analyzeStored(w http.ResponseWriter, r *http.Request) (*models.AnalyzeResult, bool) {
	userID, ok := getUserID(r)
	if !ok {
		utils.SendJSONError(w, "X-User-ID header required", http.StatusUnauthorized)
		return nil, false
	}

	manualEntries, err := database.ListManualEntries(userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error loading manual entries for userID %d: %v", userID, err), http.StatusInternalServerError)
		return nil, false
	}
	exchangeTxs, err := database.ListExchangeTransactions(userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error loading exchange transactions for userID %d: %v", userID, err), http.StatusInternalServerError)
		return nil, false
	}

	result, err := h.portfolioService.Analyze(r.Context(), manualEntries, exchangeTxs, nil)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			utils.SendJSONError(w, err.Error(), http.StatusUnprocessableEntity)
			return nil, false
		}
		utils.SendJSONError(w, fmt.Sprintf("error computing portfolio for userID %d: %v", userID, err), http.StatusInternalServerError)
		return nil, false
	}
	return result, true
}
