package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/iho/paymentsengine/internal/domain"
)

// AmountPlaces is the number of decimal places written for amounts.
const AmountPlaces = 4

var reportHeader = []string{"client", "available", "held", "total", "locked"}

// WriteAccounts writes one row per account in the given order.
func WriteAccounts(out io.Writer, accounts []*domain.Account) error {
	w := csv.NewWriter(out)

	if err := w.Write(reportHeader); err != nil {
		return err
	}

	row := make([]string, len(reportHeader))
	for _, a := range accounts {
		row[0] = strconv.FormatUint(uint64(a.CustomerID), 10)
		row[1] = a.Available.StringFixed(AmountPlaces)
		row[2] = a.Held.StringFixed(AmountPlaces)
		row[3] = a.Total.StringFixed(AmountPlaces)
		row[4] = strconv.FormatBool(a.Locked)
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
