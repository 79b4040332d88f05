package renderer

import (
	"github.com/mvaldez/cartera"
)

// formatQuantity formats a quantity with the precision its asset deserves:
// two decimals for fiat and stablecoins, up to eight for everything else.
func formatQuantity(asset string, q cartera.Quantity) string {
	switch asset {
	case "MXN", "USD", "USDT":
		return q.Decimal().StringFixed(2)
	}
	return q.Decimal().StringFixedBank(8)
}
