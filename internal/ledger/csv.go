package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"financeflow/internal/models"
)

const csvDateLayout = "2006-01-02"

var csvHeader = []string{"date", "description", "category", "kind", "amount"}

// WriteCSV exports all transaction fields, one row per transaction,
// header row included, UTF-8 encoded.
func WriteCSV(w io.Writer, txs []models.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range txs {
		record := []string{
			t.Date.Format(csvDateLayout),
			t.Description,
			string(t.Category),
			string(t.Kind),
			t.Amount.String(),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file produced by WriteCSV back into transactions.
// IDs and owners are not part of the export and come back zero.
func ReadCSV(r io.Reader) ([]models.Transaction, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(csvHeader) {
		return nil, fmt.Errorf("unexpected header %v", header)
	}

	var txs []models.Transaction
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		date, err := time.Parse(csvDateLayout, record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad date %q", line, record[0])
		}
		category := models.Category(record[2])
		if !category.Valid() {
			return nil, fmt.Errorf("line %d: bad category %q", line, record[2])
		}
		kind := models.Kind(record[3])
		if !kind.Valid() {
			return nil, fmt.Errorf("line %d: bad kind %q", line, record[3])
		}
		amount, err := models.ParseCents(record[4])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad amount %q", line, record[4])
		}

		txs = append(txs, models.Transaction{
			Date:        date,
			Description: record[1],
			Category:    category,
			Kind:        kind,
			Amount:      amount,
		})
	}
	return txs, nil
}
