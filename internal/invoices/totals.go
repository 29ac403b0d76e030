package invoices

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/kiraya-market/kiraya-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

const numberAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// GenerateInvoiceNumber produces an invoice number of the form
// INV-20260901-8F3K2A. Collisions are handled by the caller retrying on the
// unique constraint, the same way order numbers work.
func GenerateInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%s", now.UTC().Format("20060102"), randomSuffix(6))
}

func randomSuffix(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = numberAlphabet[int(b)%len(numberAlphabet)]
	}
	return string(out)
}

// taxFor computes the tax on an amount at the given basis-points rate, using
// decimal arithmetic with half-up rounding so repeated recomputation over the
// same lines is stable.
func taxFor(amountPaise int64, rateBasisPoints int64) int64 {
	if amountPaise <= 0 || rateBasisPoints <= 0 {
		return 0
	}
	return decimal.NewFromInt(amountPaise).
		Mul(decimal.NewFromInt(rateBasisPoints)).
		Div(decimal.NewFromInt(10000)).
		Round(0).
		IntPart()
}

// computeTotals derives the invoice header amounts from its line items.
// Totals are always recomputed from every line, never adjusted incrementally.
func computeTotals(lines []models.InvoiceLineItem) (subtotal, tax, total int64) {
	for _, line := range lines {
		subtotal += line.UnitPricePaise * int64(line.Qty)
		tax += line.TaxPaise
	}
	total = subtotal + tax
	return subtotal, tax, total
}
