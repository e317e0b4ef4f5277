package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/cryptotax/src/logger"
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
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateTransactionsTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		user_agent TEXT,
		client_ip TEXT,
		is_blocked BOOLEAN DEFAULT FALSE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		tx_id TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		source TEXT NOT NULL,
		type TEXT NOT NULL,
		base_asset TEXT,
		base_amount REAL,
		quote_asset TEXT,
		quote_amount REAL,
		fee_asset TEXT,
		fee_amount REAL,
		from_asset TEXT,
		from_amount REAL,
		to_asset TEXT,
		to_amount REAL,
		description TEXT,
		hash_id TEXT NOT NULL,
		FOREIGN KEY(user_id) REFERENCES users(id),
		UNIQUE(user_id, hash_id)
	);

	CREATE TABLE IF NOT EXISTS report_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		run_id TEXT NOT NULL UNIQUE,
		jurisdiction TEXT NOT NULL,
		tax_year INTEGER NOT NULL,
		method TEXT NOT NULL,
		summary_json TEXT,
		warnings_json TEXT,
		generated_at TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

func migrateTransactionsTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='transactions'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("'transactions' table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("'transactions' table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'transactions' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'transactions' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(transactions)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'transactions'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'transactions': %v", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'transactions'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'transactions': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'transactions'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'transactions': %v", err)
		}
		return
	}

	if _, ok := columnExists["description"]; !ok {
		_, err := DB.Exec("ALTER TABLE transactions ADD COLUMN description TEXT")
		if err != nil {
			logger.L.Error("Error adding 'description' column to 'transactions' table", "error", err)
		} else {
			logger.L.Info("Added 'description' column to 'transactions' table")
		}
	}

	if _, ok := columnExists["from_asset"]; !ok {
		_, err := DB.Exec("ALTER TABLE transactions ADD COLUMN from_asset TEXT")
		if err != nil {
			logger.L.Error("Error adding 'from_asset' column to 'transactions' table", "error", err)
		} else {
			logger.L.Info("Added 'from_asset' column to 'transactions' table")
		}
	}
	if _, ok := columnExists["from_amount"]; !ok {
		_, err := DB.Exec("ALTER TABLE transactions ADD COLUMN from_amount REAL")
		if err != nil {
			logger.L.Error("Error adding 'from_amount' column to 'transactions' table", "error", err)
		} else {
			logger.L.Info("Added 'from_amount' column to 'transactions' table")
		}
	}
	if _, ok := columnExists["to_asset"]; !ok {
		_, err := DB.Exec("ALTER TABLE transactions ADD COLUMN to_asset TEXT")
		if err != nil {
			logger.L.Error("Error adding 'to_asset' column to 'transactions' table", "error", err)
		} else {
			logger.L.Info("Added 'to_asset' column to 'transactions' table")
		}
	}
	if _, ok := columnExists["to_amount"]; !ok {
		_, err := DB.Exec("ALTER TABLE transactions ADD COLUMN to_amount REAL")
		if err != nil {
			logger.L.Error("Error adding 'to_amount' column to 'transactions' table", "error", err)
		} else {
			logger.L.Info("Added 'to_amount' column to 'transactions' table")
		}
	}
}
