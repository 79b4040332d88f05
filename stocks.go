package cartera

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// StockRecord is one structured brokerage transaction, persisted as a JSONL
// line per record.
type StockRecord struct {
	Ticker    string   `json:"ticker"`
	Operation string   `json:"operation"` // buy or sell
	Time      int64    `json:"timestamp"` // unix seconds UTC
	Shares    Quantity `json:"shares"`
	Price     Quantity `json:"price_per_share"`
	Currency  string   `json:"currency,omitempty"`
	Fees      Quantity `json:"fees,omitempty"`
}

// DecodeStockRecords decodes stock transactions from a stream of JSONL data.
func DecodeStockRecords(r io.Reader) ([]StockRecord, error) {
	var records []StockRecord
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		content := scanner.Bytes()
		if len(content) == 0 {
			continue
		}
		var rec StockRecord
		if err := json.Unmarshal(content, &rec); err != nil {
			return nil, fmt.Errorf("could not decode stock record on line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// EncodeStockRecord appends one record as a JSONL line.
func EncodeStockRecord(w io.Writer, rec StockRecord) error {
	content, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	content = append(content, '\n')
	_, err = w.Write(content)
	return err
}

// StockPositions returns the net share count per ticker from the canonical
// stream, clamped at zero. The stream is replayed in time order so the clamp
// applies the way the trades actually happened. Liquidated tickers are
// dropped entirely: a sold-out stock is not held, so it must never demand a
// live quote.
func StockPositions(transactions []Transaction) map[string]Quantity {
	txs := make([]Transaction, len(transactions))
	copy(txs, transactions)
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Time < txs[j].Time })

	positions := make(map[string]Quantity)
	for _, tx := range txs {
		switch tx.Kind {
		case KindStockBuy:
			positions[tx.Asset] = positions[tx.Asset].Add(tx.Quantity)
		case KindStockSell:
			remaining := positions[tx.Asset].Sub(tx.Quantity)
			if remaining.IsNegative() {
				remaining = Q(0)
			}
			positions[tx.Asset] = remaining
		}
	}
	for ticker, shares := range positions {
		if shares.Decimal().LessThanOrEqual(dust) {
			delete(positions, ticker)
		}
	}
	return positions
}
