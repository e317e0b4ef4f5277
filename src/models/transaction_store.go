package models

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"
)

// Persistence for normalized transactions and report runs. The core pipeline
// never touches the database; handlers load rows here and hand slices to the
// report service.

// InsertTransactions stores a batch for one user, skipping rows whose content
// hash already exists for that user. Returns the number of rows inserted.
func InsertTransactions(db *sql.DB, userID int64, txs []Transaction) (int, error) {
	stmt, err := db.Prepare(
		`INSERT OR IGNORE INTO transactions
		 (user_id, tx_id, timestamp, source, type, base_asset, base_amount,
		  quote_asset, quote_amount, fee_asset, fee_amount,
		  from_asset, from_amount, to_asset, to_amount, description, hash_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, tx := range txs {
		res, err := stmt.Exec(
			userID, tx.ID, tx.Timestamp.UTC().Format(time.RFC3339), tx.Source,
			string(tx.Type), tx.BaseAsset, tx.BaseAmount,
			tx.QuoteAsset, tx.QuoteAmount, tx.FeeAsset, tx.FeeAmount,
			tx.FromAsset, tx.FromAmount, tx.ToAsset, tx.ToAmount,
			tx.Description, tx.HashID())
		if err != nil {
			return inserted, err
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	return inserted, nil
}

// ListTransactions returns all of a user's transactions in timestamp order.
func ListTransactions(db *sql.DB, userID int64) ([]Transaction, error) {
	rows, err := db.Query(
		`SELECT tx_id, timestamp, source, type, base_asset, base_amount,
		        quote_asset, quote_amount, fee_asset, fee_amount,
		        from_asset, from_amount, to_asset, to_amount, description
		 FROM transactions WHERE user_id = ? ORDER BY timestamp ASC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var tx Transaction
		var ts, typ string
		if err := rows.Scan(
			&tx.ID, &ts, &tx.Source, &typ, &tx.BaseAsset, &tx.BaseAmount,
			&tx.QuoteAsset, &tx.QuoteAmount, &tx.FeeAsset, &tx.FeeAmount,
			&tx.FromAsset, &tx.FromAmount, &tx.ToAsset, &tx.ToAmount,
			&tx.Description); err != nil {
			return nil, err
		}
		tx.Type = TransactionType(strings.TrimSpace(typ))
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			tx.Timestamp = parsed
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// DeleteTransactions removes all of a user's transactions. Returns rows
// removed.
func DeleteTransactions(db *sql.DB, userID int64) (int64, error) {
	res, err := db.Exec(`DELETE FROM transactions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SaveReportRun persists the headline numbers and warnings of a completed
// run. The full per-transaction detail stays in the report cache; this row is
// the durable audit trail.
func SaveReportRun(db *sql.DB, userID int64, report *TaxReport) error {
	summaryJSON, err := json.Marshal(report.Summary)
	if err != nil {
		return err
	}
	warningsJSON, err := json.Marshal(report.Warnings)
	if err != nil {
		return err
	}
	_, err = db.Exec(
		`INSERT INTO report_runs
		 (user_id, run_id, jurisdiction, tax_year, method, generated_at, summary_json, warnings_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, report.RunID, report.JurisdictionCode, report.TaxYear,
		string(report.Method), report.GeneratedAt.Format(time.RFC3339),
		string(summaryJSON), string(warningsJSON))
	return err
}
