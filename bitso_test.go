package cartera

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFundingCSV(t *testing.T) {
	input := `Method,Currency,Gross,Fee,Net Amount,Timestamp
funding,mxn,10050,50,10000,2024-03-05 10:30:00
earnings,usdt,12.5,0,12.5,2024-03-06 09:00:00
`
	rows, err := ReadFundingCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "mxn", rows[0].Currency)
	assert.Equal(t, "10000", rows[0].NetAmount)
	assert.Equal(t, "earnings", rows[1].Method)
	assert.Equal(t, "12.5", rows[1].Gross)
}

func TestReadTradeCSV(t *testing.T) {
	input := `Type,Major,Minor,Amount,Rate,Value,Fee,Total,Timestamp
buy,btc,mxn,0.01,800000,8000,0.0001,0.0099,2024-03-05 10:30:00
`
	rows, err := ReadTradeCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "buy", rows[0].Type)
	assert.Equal(t, "800000", rows[0].Rate)
	assert.Equal(t, "0.0099", rows[0].Total)
}

func TestReadConversionCSV(t *testing.T) {
	input := `From_Currency,To_Currency,From_Amount,To_Amount,Price,Price_Currency,Timestamp
mxn,usdt,2000,100,20,mxn,2024-03-05 10:30:00
`
	rows, err := ReadConversionCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "mxn", rows[0].FromCurrency)
	assert.Equal(t, "100", rows[0].ToAmount)
}

func TestReadWithdrawalCSV(t *testing.T) {
	input := `Currency,Amount,Timestamp
btc,0.1,2024-03-05 10:30:00
`
	rows, err := ReadWithdrawalCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "btc", rows[0].Currency)
}

func TestCSVTableEmptyInput(t *testing.T) {
	rows, err := ReadFundingCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}
