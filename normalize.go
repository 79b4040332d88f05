package cartera

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Diagnostic records a non-fatal problem encountered while processing input
// rows or replaying transactions. Diagnostics never abort the run.
type Diagnostic struct {
	Source string // originating table or stage
	Line   int    // 1-based row number when applicable, 0 otherwise
	Msg    string
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s row %d: %s", d.Source, d.Line, d.Msg)
	}
	return fmt.Sprintf("%s: %s", d.Source, d.Msg)
}

// Raw rows as read from the exchange CSV exports. Fields are kept as strings:
// parsing them (and dropping the unparseable) is the normalizer's job.

type FundingRow struct {
	Method    string
	Currency  string
	Gross     string
	Fee       string
	NetAmount string
	Timestamp string
}

type ConversionRow struct {
	FromCurrency  string
	ToCurrency    string
	FromAmount    string
	ToAmount      string
	Price         string
	PriceCurrency string
	Timestamp     string
}

type TradeRow struct {
	Type      string // buy or sell
	Major     string
	Minor     string
	Amount    string
	Rate      string
	Value     string
	Fee       string
	Total     string
	Timestamp string
}

type WithdrawalRow struct {
	Currency  string
	Amount    string
	Timestamp string
}

// RawTables bundles every transaction source of one run.
type RawTables struct {
	Funding     []FundingRow
	Conversions []ConversionRow
	Trades      []TradeRow
	Withdrawals []WithdrawalRow
	Stocks      []StockRecord
}

// Normalize converts the raw rows of every source table into the canonical
// transaction list. Rows with unparseable amounts or missing timestamps are
// dropped with a diagnostic; they are never fatal to the run.
func Normalize(raw RawTables) ([]Transaction, []Diagnostic) {
	var txs []Transaction
	var diags []Diagnostic

	for i, row := range raw.Funding {
		tx, err := normalizeFunding(row)
		if err != nil {
			diags = append(diags, Diagnostic{Source: "funding", Line: i + 1, Msg: err.Error()})
			continue
		}
		if tx.Quantity.IsPositive() {
			txs = append(txs, tx)
		}
	}
	for i, row := range raw.Conversions {
		out, in, err := normalizeConversion(row)
		if err != nil {
			diags = append(diags, Diagnostic{Source: "conversion", Line: i + 1, Msg: err.Error()})
			continue
		}
		txs = append(txs, out, in)
	}
	for i, row := range raw.Trades {
		tx, err := normalizeTrade(row)
		if err != nil {
			diags = append(diags, Diagnostic{Source: "trade", Line: i + 1, Msg: err.Error()})
			continue
		}
		txs = append(txs, tx)
	}
	for i, row := range raw.Withdrawals {
		tx, err := normalizeWithdrawal(row)
		if err != nil {
			diags = append(diags, Diagnostic{Source: "withdrawal", Line: i + 1, Msg: err.Error()})
			continue
		}
		txs = append(txs, tx)
	}
	for i, rec := range raw.Stocks {
		tx, err := normalizeStock(rec)
		if err != nil {
			diags = append(diags, Diagnostic{Source: "stocks", Line: i + 1, Msg: err.Error()})
			continue
		}
		txs = append(txs, tx)
	}
	return txs, diags
}

func normalizeFunding(row FundingRow) (Transaction, error) {
	ts, err := parseTimestamp(row.Timestamp)
	if err != nil {
		return Transaction{}, err
	}
	currency := symbol(row.Currency)

	// Earnings report the gross amount, regular deposits the net amount.
	field, name := row.NetAmount, "net amount"
	if strings.EqualFold(row.Method, "earnings") {
		field, name = row.Gross, "gross"
	}
	amount, err := ParseQuantity(field)
	if err != nil {
		return Transaction{}, fmt.Errorf("unparseable %s %q", name, field)
	}

	tx := Transaction{
		Kind:     KindDeposit,
		Asset:    currency,
		Counter:  currency,
		Quantity: amount,
		Time:     ts,
		Source:   "funding",
	}
	// A fiat or stablecoin deposit is a purchase of itself at par. Crypto
	// deposits are pure transfers and carry no price.
	if cashCurrency(currency) {
		tx.UnitPrice = M(1, currency)
	}
	return tx, nil
}

func normalizeConversion(row ConversionRow) (out, in Transaction, err error) {
	ts, err := parseTimestamp(row.Timestamp)
	if err != nil {
		return out, in, err
	}
	fromAmount, err := ParseQuantity(row.FromAmount)
	if err != nil {
		return out, in, fmt.Errorf("unparseable from_amount %q", row.FromAmount)
	}
	toAmount, err := ParseQuantity(row.ToAmount)
	if err != nil {
		return out, in, fmt.Errorf("unparseable to_amount %q", row.ToAmount)
	}
	if !fromAmount.IsPositive() || !toAmount.IsPositive() {
		return out, in, fmt.Errorf("conversion amounts must be positive (%s -> %s)", row.FromAmount, row.ToAmount)
	}
	from, to := symbol(row.FromCurrency), symbol(row.ToCurrency)

	// A conversion is a sell leg on the source currency and a buy leg on the
	// target currency, both priced by the conversion's own rate.
	out = Transaction{
		Kind:      KindConversionOut,
		Asset:     from,
		Counter:   to,
		Quantity:  fromAmount,
		UnitPrice: M(toAmount.Div(fromAmount).Decimal(), to),
		Time:      ts,
		Source:    "conversion",
	}
	in = Transaction{
		Kind:      KindConversionIn,
		Asset:     to,
		Counter:   from,
		Quantity:  toAmount,
		UnitPrice: M(fromAmount.Div(toAmount).Decimal(), from),
		Time:      ts,
		Source:    "conversion",
	}
	return out, in, nil
}

func normalizeTrade(row TradeRow) (Transaction, error) {
	ts, err := parseTimestamp(row.Timestamp)
	if err != nil {
		return Transaction{}, err
	}
	major, minor := symbol(row.Major), symbol(row.Minor)
	rate, err := ParseQuantity(row.Rate)
	if err != nil {
		return Transaction{}, fmt.Errorf("unparseable rate %q", row.Rate)
	}
	fee, err := ParseQuantity(row.Fee)
	if err != nil {
		return Transaction{}, fmt.Errorf("unparseable fee %q", row.Fee)
	}

	switch strings.ToLower(row.Type) {
	case "buy":
		// On a buy the fee is charged in the major currency: "total" is the
		// amount actually credited, net of fee.
		total, err := ParseQuantity(row.Total)
		if err != nil {
			return Transaction{}, fmt.Errorf("unparseable total %q", row.Total)
		}
		return Transaction{
			Kind:      KindTradeBuy,
			Asset:     major,
			Counter:   minor,
			Quantity:  total,
			UnitPrice: M(rate.Decimal(), minor),
			Fee:       M(fee.Decimal(), major),
			Time:      ts,
			Source:    "trade",
		}, nil
	case "sell":
		amount, err := ParseQuantity(row.Amount)
		if err != nil {
			return Transaction{}, fmt.Errorf("unparseable amount %q", row.Amount)
		}
		return Transaction{
			Kind:      KindTradeSell,
			Asset:     major,
			Counter:   minor,
			Quantity:  amount,
			UnitPrice: M(rate.Decimal(), minor),
			Fee:       M(fee.Decimal(), minor),
			Time:      ts,
			Source:    "trade",
		}, nil
	default:
		return Transaction{}, fmt.Errorf("unknown trade type %q", row.Type)
	}
}

func normalizeWithdrawal(row WithdrawalRow) (Transaction, error) {
	ts, err := parseTimestamp(row.Timestamp)
	if err != nil {
		return Transaction{}, err
	}
	amount, err := ParseQuantity(row.Amount)
	if err != nil {
		return Transaction{}, fmt.Errorf("unparseable amount %q", row.Amount)
	}
	return Transaction{
		Kind:     KindWithdrawal,
		Asset:    symbol(row.Currency),
		Quantity: amount,
		Time:     ts,
		Source:   "withdrawal",
	}, nil
}

func normalizeStock(rec StockRecord) (Transaction, error) {
	if rec.Time == 0 {
		return Transaction{}, fmt.Errorf("stock record %s is missing a timestamp", rec.Ticker)
	}
	kind := KindStockBuy
	switch strings.ToLower(rec.Operation) {
	case "buy":
	case "sell":
		kind = KindStockSell
	default:
		return Transaction{}, fmt.Errorf("unknown stock operation %q", rec.Operation)
	}
	currency := symbol(rec.Currency)
	if currency == "" {
		currency = "USD"
	}
	return Transaction{
		Kind:      kind,
		Asset:     symbol(rec.Ticker),
		Counter:   currency,
		Quantity:  rec.Shares,
		UnitPrice: M(rec.Price.Decimal(), currency),
		Fee:       M(rec.Fees.Decimal(), currency),
		Time:      rec.Time,
		Source:    "stocks",
	}, nil
}

// symbol normalizes an asset or currency symbol to its canonical upper-case form.
func symbol(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// timestampFormats lists the layouts accepted in export files, tried in order.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTimestamp parses a row timestamp into unix seconds. A missing or
// unparseable timestamp is an error: defaulting to zero would sort the row
// first and corrupt the replay order.
func parseTimestamp(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing timestamp")
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		if sec <= 0 {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		return sec, nil
	}
	for _, layout := range timestampFormats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("unparseable timestamp %q", s)
}
