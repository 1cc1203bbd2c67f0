package fees

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/brightpath/schoolbooks-backend/pkg/errors"
)

const (
	receiptPrefix       = "RCP"
	receiptDateLayout   = "20060102"
	receiptSuffixDigits = 4
)

type receiptNumberReader interface {
	LockReceiptDay(ctx context.Context, prefix string) error
	ListReceiptNumbersForDay(ctx context.Context, prefix string) ([]string, error)
}

// nextReceiptNumber derives the day's next receipt number from the rows that
// already carry one. The day lock must be held by the surrounding transaction
// until every row tagged with the new number is written; otherwise two
// concurrent payments can compute the same "next" suffix. The lock is taken
// on the day prefix itself rather than on the matching rows, because the
// first payment of a day has no rows to lock.
//
// The counter is derived rather than stored: scanning one day's receipts is
// cheap at school volumes and avoids a second piece of state that could fall
// out of step with the rows themselves.
func nextReceiptNumber(ctx context.Context, reader receiptNumberReader, date time.Time) (string, error) {
	dayPrefix := fmt.Sprintf("%s-%s-", receiptPrefix, date.Format(receiptDateLayout))

	if err := reader.LockReceiptDay(ctx, dayPrefix); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock receipt day")
	}
	existing, err := reader.ListReceiptNumbersForDay(ctx, dayPrefix)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan receipt numbers")
	}

	max := 0
	for _, number := range existing {
		suffix, ok := strings.CutPrefix(number, dayPrefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}

	return fmt.Sprintf("%s%0*d", dayPrefix, receiptSuffixDigits, max+1), nil
}
