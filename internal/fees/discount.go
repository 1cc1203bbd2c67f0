package fees

import "github.com/shopspring/decimal"

// allocateDiscount splits one discount across the two groups of fee lines in
// a payment: previously generated pending dues and newly selected fee
// structures. The split is two-level: first between the groups in proportion
// to each group's item count, then equally among the lines inside each group.
// The per-line share deliberately ignores line amounts; a 100 discount over
// lines of 500 and 300 lands as 50 and 50, not 62.50 and 37.50.
//
// Division happens at full decimal precision with no rounding step, so the
// allocated lines may drift from the input total by a vanishing remainder
// (e.g. a 100 discount over three lines). Callers compare totals with
// tolerance, never exact equality.
func allocateDiscount(total decimal.Decimal, pendingCount, newCount int) (perPendingLine, perNewLine decimal.Decimal) {
	perPendingLine = decimal.Zero
	perNewLine = decimal.Zero

	itemCount := pendingCount + newCount
	if itemCount == 0 || total.LessThanOrEqual(decimal.Zero) {
		return perPendingLine, perNewLine
	}

	totalItems := decimal.NewFromInt(int64(itemCount))

	if pendingCount > 0 {
		groupShare := total.
			Mul(decimal.NewFromInt(int64(pendingCount))).
			Div(totalItems)
		perPendingLine = groupShare.Div(decimal.NewFromInt(int64(pendingCount)))
	}
	if newCount > 0 {
		groupShare := total.
			Mul(decimal.NewFromInt(int64(newCount))).
			Div(totalItems)
		perNewLine = groupShare.Div(decimal.NewFromInt(int64(newCount)))
	}
	return perPendingLine, perNewLine
}
