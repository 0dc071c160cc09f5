package database

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/username/coinsensei/backend/src/logger"
	"github.com/username/coinsensei/backend/src/models"
)

// recordHash keys a record's content so re-submitting the same batch
// does not stack duplicate rows. The hygiene processor still reports
// duplicates present within a single analyze payload.
func recordHash(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(hash[:])
}

// InsertManualEntries stores a batch for one user, skipping rows whose
// content hash already exists. Returns the number inserted.
func InsertManualEntries(userID int64, entries []models.ManualEntry) (int, error) {
	dbTx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`INSERT INTO manual_entries
		(external_id, user_id, token, buy_date, amount, buy_price, current_price, hash_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, entry := range entries {
		hashID := recordHash("manual", entry.Token, entry.BuyDate,
			fmt.Sprintf("%v", entry.Amount), fmt.Sprintf("%v", entry.BuyPrice))
		_, err := stmt.Exec(uuid.NewString(), userID, entry.Token, entry.BuyDate,
			entry.Amount, entry.BuyPrice, entry.CurrentPrice, hashID)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
				logger.L.Debug("Skipping already-stored manual entry", "userID", userID, "hash_id", hashID)
				continue
			}
			return 0, fmt.Errorf("error inserting manual entry (token %s): %w", entry.Token, err)
		}
		inserted++
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing manual entries: %w", err)
	}
	return inserted, nil
}

// InsertExchangeTransactions stores a batch for one user, skipping
// rows whose content hash already exists.
func InsertExchangeTransactions(userID int64, txs []models.ExchangeTransaction) (int, error) {
	dbTx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`INSERT INTO exchange_transactions
		(external_id, user_id, token, date, type, amount, price, hash_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, tx := range txs {
		hashID := recordHash("exchange", tx.Token, tx.Date, tx.Type,
			fmt.Sprintf("%v", tx.Amount), fmt.Sprintf("%v", tx.Price))
		_, err := stmt.Exec(uuid.NewString(), userID, tx.Token, tx.Date,
			tx.Type, tx.Amount, tx.Price, hashID)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
				logger.L.Debug("Skipping already-stored exchange transaction", "userID", userID, "hash_id", hashID)
				continue
			}
			return 0, fmt.Errorf("error inserting exchange transaction (token %s): %w", tx.Token, err)
		}
		inserted++
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing exchange transactions: %w", err)
	}
	return inserted, nil
}

// ListManualEntries returns a user's stored manual entries in insert order.
func ListManualEntries(userID int64) ([]models.ManualEntry, error) {
	rows, err := DB.Query(`
		SELECT external_id, token, buy_date, amount, buy_price, current_price
		FROM manual_entries
		WHERE user_id = ?
		ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying manual entries for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var entries []models.ManualEntry
	for rows.Next() {
		var entry models.ManualEntry
		if err := rows.Scan(&entry.ID, &entry.Token, &entry.BuyDate,
			&entry.Amount, &entry.BuyPrice, &entry.CurrentPrice); err != nil {
			return nil, fmt.Errorf("error scanning manual entry for userID %d: %w", userID, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ListExchangeTransactions returns a user's stored exchange
// transactions in insert order.
func ListExchangeTransactions(userID int64) ([]models.ExchangeTransaction, error) {
	rows, err := DB.Query(`
		SELECT external_id, token, date, type, amount, price
		FROM exchange_transactions
		WHERE user_id = ?
		ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying exchange transactions for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var txs []models.ExchangeTransaction
	for rows.Next() {
		var tx models.ExchangeTransaction
		if err := rows.Scan(&tx.ID, &tx.Token, &tx.Date,
			&tx.Type, &tx.Amount, &tx.Price); err != nil {
			return nil, fmt.Errorf("error scanning exchange transaction for userID %d: %w", userID, err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// DeleteUserRecords wipes all stored records for a user.
func DeleteUserRecords(userID int64) error {
	dbTx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec(`DELETE FROM manual_entries WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("error deleting manual entries for userID %d: %w", userID, err)
	}
	if _, err := dbTx.Exec(`DELETE FROM exchange_transactions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("error deleting exchange transactions for userID %d: %w", userID, err)
	}
	return dbTx.Commit()
}
