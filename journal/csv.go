package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	w *csv.Writer
	f *os.File
}

func NewCSV(path string) (*CSVJournal, error) {
	// The journal is append-only across process runs; the header is written
	// only when the file is new.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write([]string{
			"id", "time", "account_key", "uic", "side", "order_type",
			"quantity", "price", "order_id", "outcome", "resolved_id",
		}); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return &CSVJournal{w, f}, nil
}

func (j *CSVJournal) RecordOrder(rec OrderRecord) error {
	err := j.w.Write([]string{
		rec.ID,
		rec.Time.Format(time.RFC3339),
		rec.AccountKey,
		strconv.Itoa(rec.Uic),
		rec.Side,
		rec.OrderType,
		f(rec.Quantity),
		f(rec.Price),
		rec.OrderID,
		rec.Outcome,
		rec.ResolvedID,
	})
	if err != nil {
		return err
	}

	j.w.Flush()
	return j.w.Error()
}

func (j *CSVJournal) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		j.f.Close()
		return err
	}
	return j.f.Close()
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
