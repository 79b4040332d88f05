package cartera

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColdWalletRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cold.json")
	wallet := OpenColdWallet(path)

	require.NoError(t, wallet.Put("btc", Q(0.5)))
	require.NoError(t, wallet.Put("ETH", Q(2)))
	require.NoError(t, wallet.Put("btc", Q(0.75))) // overwrite

	holdings, err := wallet.List()
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.True(t, holdings["BTC"].Equal(Q(0.75)))
	assert.True(t, holdings["ETH"].Equal(Q(2)))

	require.NoError(t, wallet.Delete("BTC"))
	holdings, err = wallet.List()
	require.NoError(t, err)
	assert.Len(t, holdings, 1)
}

func TestColdWalletMissingFileIsEmpty(t *testing.T) {
	wallet := OpenColdWallet(filepath.Join(t.TempDir(), "nope.json"))
	holdings, err := wallet.List()
	require.NoError(t, err)
	assert.Empty(t, holdings)
}

func TestColdWalletDeleteUnknown(t *testing.T) {
	wallet := OpenColdWallet(filepath.Join(t.TempDir(), "cold.json"))
	err := wallet.Delete("doge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOGE")
}

func TestColdWalletKeysStoredLowerCase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cold.json")
	require.NoError(t, OpenColdWallet(path).Put("BTC", Q(1)))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"btc"`, "on-disk keys stay hand-editable")
}
