package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/coinsensei/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Ensuring database schema", "databasePath", databasePath)
	} else {
		stdlog.Println("Ensuring database schema for:", databasePath)
	}

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS manual_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id TEXT NOT NULL,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		buy_date TEXT NOT NULL,
		amount REAL NOT NULL,
		buy_price REAL NOT NULL DEFAULT 0,
		current_price REAL NOT NULL DEFAULT 0,
		hash_id TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, hash_id)
	);

	CREATE TABLE IF NOT EXISTS exchange_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id TEXT NOT NULL,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		date TEXT NOT NULL,
		type TEXT NOT NULL,
		amount REAL NOT NULL,
		price REAL NOT NULL DEFAULT 0,
		hash_id TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, hash_id)
	);

	CREATE INDEX IF NOT EXISTS idx_manual_entries_user ON manual_entries(user_id);
	CREATE INDEX IF NOT EXISTS idx_exchange_transactions_user ON exchange_transactions(user_id);
	`

	if _, err := DB.Exec(createTableStatement); err != nil {
		stdlog.Fatalf("failed to create tables: %v", err)
	}
}
