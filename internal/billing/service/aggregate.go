package service

import (
	"github.com/shopspring/decimal"
	billingdomain "github.com/smallbiznis/tidybill/internal/billing/domain"
)

type totals struct {
	subtotal  decimal.Decimal
	taxAmount decimal.Decimal
	total     decimal.Decimal
}

// sumLineItems rounds at every step so totals match what the line items show.
func sumLineItems(items []billingdomain.LineItem) totals {
	subtotal, taxAmount := decimal.Zero, decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineItemTotal)
		taxAmount = taxAmount.Add(item.LineItemTax)
	}
	subtotal = round2(subtotal)
	taxAmount = round2(taxAmount)
	return totals{
		subtotal:  subtotal,
		taxAmount: taxAmount,
		total:     round2(subtotal.Add(taxAmount)),
	}
}

func lineItems(results []facilityResult) []billingdomain.LineItem {
	items := make([]billingdomain.LineItem, 0, len(results))
	for _, r := range results {
		items = append(items, r.item)
	}
	return items
}
