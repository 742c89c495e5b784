package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordOrder(rec OrderRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO orders
		(id, time, account_key, uic, side, order_type, quantity, price, order_id, outcome, resolved_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Time.Format(time.RFC3339), rec.AccountKey, rec.Uic,
		rec.Side, rec.OrderType, rec.Quantity, rec.Price,
		rec.OrderID, rec.Outcome, rec.ResolvedID,
	)
	return err
}

// ListByAccount returns the recorded submissions for one account, oldest
// first.
func (j *SQLiteJournal) ListByAccount(accountKey string) ([]OrderRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, time, account_key, uic, side, order_type, quantity, price, order_id, outcome, resolved_id
		FROM orders WHERE account_key = ? ORDER BY id`, accountKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		var rec OrderRecord
		var ts string
		if err := rows.Scan(&rec.ID, &ts, &rec.AccountKey, &rec.Uic, &rec.Side,
			&rec.OrderType, &rec.Quantity, &rec.Price, &rec.OrderID,
			&rec.Outcome, &rec.ResolvedID); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.Time = t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
