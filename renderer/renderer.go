// Package renderer turns portfolio reports into markdown for terminal display.
package renderer

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	md "github.com/nao1215/markdown"

	"github.com/mvaldez/cartera"
)

// ReportMarkdown renders the full portfolio dashboard.
func ReportMarkdown(r *cartera.PortfolioReport) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Portfolio Dashboard")
	doc.PlainText(fmt.Sprintf("Total Value: %s", md.Bold(r.TotalValue.String())))
	doc.PlainText(fmt.Sprintf("Total Invested: %s", r.TotalInvested.String()))
	doc.PlainText(fmt.Sprintf("P&L: %s (%s)", r.PnL.SignedString(), r.ROI.SignedString()))
	if r.USDMXN.IsPositive() {
		doc.PlainText(fmt.Sprintf("Live USD/MXN rate: %s", r.USDMXN.StringFixed(2)))
	}
	if len(r.Locations) > 0 {
		parts := make([]string, 0, len(r.Locations))
		for _, loc := range r.Locations {
			parts = append(parts, fmt.Sprintf("%s %s", loc.Location, loc.Value))
		}
		doc.PlainText("By location: " + strings.Join(parts, " + "))
	}

	if len(r.Deposits) > 0 {
		doc.H2("Deposits (what you put in)")
		doc.Table(depositsTable(r.Deposits))
	}

	for _, loc := range r.Locations {
		doc.H2(fmt.Sprintf("%s Holdings", loc.Location))
		doc.Table(locationTable(loc))
	}

	doc.H2("Combined Holdings")
	table := md.TableSet{
		Header:    []string{"Asset", "Quantity", "Location", "Price", "USD Value", "% Portfolio"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
	}
	for _, row := range r.Rows {
		table.Rows = append(table.Rows, []string{
			row.Asset,
			formatQuantity(row.Asset, row.Quantity),
			row.Location,
			row.Price.String(),
			row.Value.String(),
			row.Allocation.String(),
		})
	}
	doc.Table(table)

	if rows := basisRows(r); len(rows) > 0 {
		doc.H2("Average Cost & Unrealized P&L")
		doc.Table(md.TableSet{
			Header:    []string{"Asset", "Avg Cost", "Current Price", "Holdings", "Unrealized P&L"},
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
			Rows:      rows,
		})
	}

	if len(r.Fees) > 0 {
		doc.H2("Fees Paid")
		doc.Table(feesTable(r.Fees))
	}

	if len(r.Diagnostics) > 0 {
		doc.H2("Diagnostics")
		items := make([]string, 0, len(r.Diagnostics))
		for _, diag := range r.Diagnostics {
			items = append(items, diag.String())
		}
		doc.BulletList(items...)
	}

	return doc.String()
}

// ColdWalletMarkdown renders the cold wallet listing.
func ColdWalletMarkdown(wallet map[string]cartera.Quantity) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Cold Wallet Holdings")

	if len(wallet) == 0 {
		doc.PlainText("Cold wallet is empty.")
		return doc.String()
	}

	assets := make([]string, 0, len(wallet))
	for asset := range wallet {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	table := md.TableSet{
		Header:    []string{"Asset", "Amount"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
	}
	for _, asset := range assets {
		table.Rows = append(table.Rows, []string{asset, formatQuantity(asset, wallet[asset])})
	}
	doc.Table(table)
	return doc.String()
}

func basisRows(r *cartera.PortfolioReport) [][]string {
	var rows [][]string
	for _, row := range r.Rows {
		if !row.HasBasis {
			continue
		}
		rows = append(rows, []string{
			row.Asset,
			row.AvgCost.String(),
			row.Price.String(),
			formatQuantity(row.Asset, row.Quantity),
			row.PnL.SignedString(),
		})
	}
	return rows
}

func locationTable(loc cartera.LocationValuation) md.TableSet {
	table := md.TableSet{
		Header:    []string{"Asset", "Quantity", "Price", "USD Value"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
	}
	for _, row := range loc.Rows {
		table.Rows = append(table.Rows, []string{
			row.Asset,
			formatQuantity(row.Asset, row.Quantity),
			row.Price.String(),
			row.Value.String(),
		})
	}
	return table
}

func depositsTable(deposits map[string]cartera.Quantity) md.TableSet {
	currencies := make([]string, 0, len(deposits))
	for currency := range deposits {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	table := md.TableSet{
		Header:    []string{"Currency", "Deposited"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
	}
	for _, currency := range currencies {
		table.Rows = append(table.Rows, []string{currency, formatQuantity(currency, deposits[currency])})
	}
	return table
}

func feesTable(fees []cartera.FeeValuation) md.TableSet {
	table := md.TableSet{
		Header:    []string{"Currency", "Fees", "USD Value"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
	}
	for _, fee := range fees {
		value := "-"
		if fee.HasValue {
			value = fee.Value.String()
		}
		table.Rows = append(table.Rows, []string{fee.Currency, formatQuantity(fee.Currency, fee.Amount), value})
	}
	return table
}
