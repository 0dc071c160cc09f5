package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/username/coinsensei/backend/src/database"
	"github.com/username/coinsensei/backend/src/logger"
	"github.com/username/coinsensei/backend/src/models"
	"github.com/username/coinsensei/backend/src/security/validation"
	"github.com/username/coinsensei/backend/src/utils"
)

// RecordHandler manages the stored trade records an analysis runs
// over. Records are append-only apart from the full wipe; the
// analytics core itself never writes anything.
type RecordHandler struct {
	maxBodyBytes int64
}

func NewRecordHandler(maxBodyBytes int64) *RecordHandler {
	return &RecordHandler{maxBodyBytes: maxBodyBytes}
}

func (h *RecordHandler) HandleAddManualEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		utils.SendJSONError(w, "X-User-ID header required", http.StatusUnauthorized)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var entries []models.ManualEntry
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	for i := range entries {
		entries[i].Token = validation.SanitizeToken(entries[i].Token)
		if entries[i].Token == "" {
			utils.SendJSONError(w, fmt.Sprintf("manual entry %d has no token", i), http.StatusBadRequest)
			return
		}
	}

	inserted, err := database.InsertManualEntries(userID, entries)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error storing manual entries for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	logger.L.Info("Stored manual entries", "userID", userID, "received", len(entries), "inserted", inserted)
	utils.WriteJSON(w, map[string]int{"received": len(entries), "inserted": inserted})
}

func (h *RecordHandler) HandleAddExchangeTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		utils.SendJSONError(w, "X-User-ID header required", http.StatusUnauthorized)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var txs []models.ExchangeTransaction
	if err := json.NewDecoder(r.Body).Decode(&txs); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	for i := range txs {
		txs[i].Token = validation.SanitizeToken(txs[i].Token)
		if txs[i].Token == "" {
			utils.SendJSONError(w, fmt.Sprintf("exchange transaction %d has no token", i), http.StatusBadRequest)
			return
		}
	}

	inserted, err := database.InsertExchangeTransactions(userID, txs)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error storing exchange transactions for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	logger.L.Info("Stored exchange transactions", "userID", userID, "received", len(txs), "inserted", inserted)
	utils.WriteJSON(w, map[string]int{"received": len(txs), "inserted": inserted})
}

func (h *RecordHandler) HandleListManualEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		utils.SendJSONError(w, "X-User-ID header required", http.StatusUnauthorized)
		return
	}
	entries, err := database.ListManualEntries(userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error loading manual entries for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.ManualEntry{}
	}
	utils.WriteJSON(w, entries)
}

func (h *RecordHandler) HandleListExchangeTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		utils.SendJSONError(w, "X-User-ID header required", http.StatusUnauthorized)
		return
	}
	txs, err := database.ListExchangeTransactions(userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error loading exchange transactions for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []models.ExchangeTransaction{}
	}
	utils.WriteJSON(w, txs)
}

func (h *RecordHandler) HandleDeleteRecords(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		utils.SendJSONError(w, "X-User-ID header required", http.StatusUnauthorized)
		return
	}
	if err := database.DeleteUserRecords(userID); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error deleting records for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	logger.L.Info("Deleted all records", "userID", userID)
	utils.WriteJSON(w, map[string]string{"status": "deleted"})
}
