package cartera

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStockRecords(t *testing.T) {
	input := `{"ticker":"VOO","operation":"buy","timestamp":1709640000,"shares":2,"price_per_share":450.10,"fees":1}

{"ticker":"AAPL","operation":"sell","timestamp":1709726400,"shares":1,"price_per_share":180,"currency":"USD"}
`
	records, err := DecodeStockRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2, "blank lines are skipped")

	assert.Equal(t, "VOO", records[0].Ticker)
	assert.True(t, records[0].Shares.Equal(Q(2)))
	assert.Equal(t, "450.1", records[0].Price.Decimal().String())
	assert.Equal(t, int64(1709640000), records[0].Time)
}

func TestDecodeStockRecordsBadLine(t *testing.T) {
	_, err := DecodeStockRecords(strings.NewReader("{not json}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestEncodeStockRecordRoundTrip(t *testing.T) {
	rec := StockRecord{Ticker: "VOO", Operation: "buy", Time: 1709640000, Shares: Q(2), Price: Q(450.10)}
	var buf bytes.Buffer
	require.NoError(t, EncodeStockRecord(&buf, rec))
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))

	decoded, err := DecodeStockRecords(&buf)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, rec.Ticker, decoded[0].Ticker)
	assert.True(t, decoded[0].Shares.Equal(rec.Shares))
}

func TestStockPositionsClampInTimeOrder(t *testing.T) {
	// The sell arrives first in the file but trades last; replay must follow
	// trade time, leaving 1 share, not clamping to 0 then adding 3.
	txs := []Transaction{
		{Kind: KindStockSell, Asset: "VOO", Quantity: Q(2), Time: ts(3)},
		{Kind: KindStockBuy, Asset: "VOO", Quantity: Q(3), Time: ts(1)},
	}
	positions := StockPositions(txs)
	assert.Equal(t, "1", positions["VOO"].Decimal().String())
}

func TestStockPositionsOverSellClamps(t *testing.T) {
	txs := []Transaction{
		{Kind: KindStockBuy, Asset: "VOO", Quantity: Q(1), Time: ts(1)},
		{Kind: KindStockSell, Asset: "VOO", Quantity: Q(5), Time: ts(2)},
	}
	positions := StockPositions(txs)
	assert.True(t, positions["VOO"].IsZero())
	assert.NotContains(t, positions, "VOO")
}

func TestStockPositionsDropLiquidatedTickers(t *testing.T) {
	// A fully sold ticker must disappear from the positions: a zero entry
	// would ask the quote gateway for a stock no longer held, and a delisted
	// one would fail the whole report.
	txs := []Transaction{
		{Kind: KindStockBuy, Asset: "ARKQ", Quantity: Q(2), Time: ts(1)},
		{Kind: KindStockSell, Asset: "ARKQ", Quantity: Q(2), Time: ts(2)},
		{Kind: KindStockBuy, Asset: "VOO", Quantity: Q(1), Time: ts(3)},
	}
	positions := StockPositions(txs)
	assert.NotContains(t, positions, "ARKQ")
	assert.Equal(t, "1", positions["VOO"].Decimal().String())
}
