package cartera

// Exchange-side balance computation: net inflow minus outflow per currency,
// replayed from the same canonical stream the accumulator consumes. Stock
// transactions live at the brokerage and are excluded here.

// Balances returns the net exchange balance per asset.
func Balances(txs []Transaction) map[string]Quantity {
	inflow := make(map[string]Quantity)
	outflow := make(map[string]Quantity)

	add := func(m map[string]Quantity, asset string, q Quantity) {
		m[asset] = m[asset].Add(q)
	}

	for _, tx := range txs {
		switch tx.Kind {
		case KindDeposit:
			add(inflow, tx.Asset, tx.Quantity)
		case KindWithdrawal:
			add(outflow, tx.Asset, tx.Quantity)
		case KindConversionIn:
			add(inflow, tx.Asset, tx.Quantity)
		case KindConversionOut:
			add(outflow, tx.Asset, tx.Quantity)
		case KindTradeBuy:
			// The quantity credited is net of fee; the counter leg paid for
			// the gross amount.
			add(inflow, tx.Asset, tx.Quantity)
			gross := tx.Quantity
			if tx.Fee.Currency() == tx.Asset {
				gross = gross.Add(Q(tx.Fee.Decimal()))
			}
			add(outflow, tx.Counter, gross.Mul(Q(tx.UnitPrice.Decimal())))
		case KindTradeSell:
			add(outflow, tx.Asset, tx.Quantity)
			proceeds := tx.Quantity.Mul(Q(tx.UnitPrice.Decimal()))
			if tx.Fee.Currency() == tx.Counter {
				proceeds = proceeds.Sub(Q(tx.Fee.Decimal()))
			}
			add(inflow, tx.Counter, proceeds)
		}
	}

	balances := make(map[string]Quantity)
	for asset, q := range inflow {
		balances[asset] = q
	}
	for asset, q := range outflow {
		balances[asset] = balances[asset].Sub(q)
	}
	return balances
}

// FundingTotals returns the gross deposited amount per currency, the
// "what you put in" summary of the report header.
func FundingTotals(txs []Transaction) map[string]Quantity {
	totals := make(map[string]Quantity)
	for _, tx := range txs {
		if tx.Kind == KindDeposit {
			totals[tx.Asset] = totals[tx.Asset].Add(tx.Quantity)
		}
	}
	return totals
}
