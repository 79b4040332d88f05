package cartera

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// Bitso exchange collaborators: the live USDT/MXN ticker and the readers for
// the account history CSV exports.

const bitsoTickerURL = "https://api.bitso.com/v3/ticker/?book=usdt_mxn"

// FetchUSDTMXN fetches the current USDT/MXN rate (MXN per USDT) from the
// Bitso public ticker. A failure here is fatal to the report run.
func FetchUSDTMXN() (decimal.Decimal, error) {
	var jobj any
	if err := jwget(live(), bitsoTickerURL, &jobj); err != nil {
		return decimal.Decimal{}, fmt.Errorf("could not fetch USDT/MXN rate from Bitso: %w", err)
	}

	jval, err := jsonpath.Get("$.payload.last", jobj)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unexpected Bitso ticker payload: %w", err)
	}
	// jsonpath is never clear about whether it returns a list of 1 answer or
	// a single answer, keep the first one if any.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	last, ok := jval.(string)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("unexpected Bitso ticker payload: last price is %T, not a string", jval)
	}

	rate, err := decimal.NewFromString(last)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid Bitso last price %q: %w", last, err)
	}
	if !rate.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("non-positive Bitso USDT/MXN rate %s", rate)
	}
	return rate, nil
}

// csvTable reads a headered CSV stream and returns one map per row, keyed by
// the lower-cased header names.
func csvTable(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read CSV row: %w", err)
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadFundingCSV reads a funding export.
func ReadFundingCSV(r io.Reader) ([]FundingRow, error) {
	table, err := csvTable(r)
	if err != nil {
		return nil, err
	}
	rows := make([]FundingRow, 0, len(table))
	for _, rec := range table {
		rows = append(rows, FundingRow{
			Method:    rec["method"],
			Currency:  rec["currency"],
			Gross:     rec["gross"],
			Fee:       rec["fee"],
			NetAmount: rec["net amount"],
			Timestamp: rec["timestamp"],
		})
	}
	return rows, nil
}

// ReadConversionCSV reads a conversions export.
func ReadConversionCSV(r io.Reader) ([]ConversionRow, error) {
	table, err := csvTable(r)
	if err != nil {
		return nil, err
	}
	rows := make([]ConversionRow, 0, len(table))
	for _, rec := range table {
		rows = append(rows, ConversionRow{
			FromCurrency:  rec["from_currency"],
			ToCurrency:    rec["to_currency"],
			FromAmount:    rec["from_amount"],
			ToAmount:      rec["to_amount"],
			Price:         rec["price"],
			PriceCurrency: rec["price_currency"],
			Timestamp:     rec["timestamp"],
		})
	}
	return rows, nil
}

// ReadTradeCSV reads a trades export.
func ReadTradeCSV(r io.Reader) ([]TradeRow, error) {
	table, err := csvTable(r)
	if err != nil {
		return nil, err
	}
	rows := make([]TradeRow, 0, len(table))
	for _, rec := range table {
		rows = append(rows, TradeRow{
			Type:      rec["type"],
			Major:     rec["major"],
			Minor:     rec["minor"],
			Amount:    rec["amount"],
			Rate:      rec["rate"],
			Value:     rec["value"],
			Fee:       rec["fee"],
			Total:     rec["total"],
			Timestamp: rec["timestamp"],
		})
	}
	return rows, nil
}

// ReadWithdrawalCSV reads a withdrawals export.
func ReadWithdrawalCSV(r io.Reader) ([]WithdrawalRow, error) {
	table, err := csvTable(r)
	if err != nil {
		return nil, err
	}
	rows := make([]WithdrawalRow, 0, len(table))
	for _, rec := range table {
		rows = append(rows, WithdrawalRow{
			Currency:  rec["currency"],
			Amount:    rec["amount"],
			Timestamp: rec["timestamp"],
		})
	}
	return rows, nil
}
