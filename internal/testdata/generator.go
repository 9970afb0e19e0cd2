// Package testdata generates sample bill exports for tests.
package testdata

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jask/jaskbills/internal/provider"
)

var merchants = []string{"UBER EATS* SUSHI", "AMAZON.COM*XYZ", "WOOLWORTHS", "SPOTIFY", "SALARY ACME"}

// Export is a generated file together with what a correct import yields.
type Export struct {
	CSV     string
	Entries []provider.Entry
}

// Generate writes n rows in p's layout. The same seed gives the same file.
// Dates are UTC days from start. Descriptions are unique per row.
func Generate(p provider.Provider, n int, seed uint64, start time.Time) Export {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	delim := p.Delimiter
	if delim == "" {
		delim = ","
	}
	width := max(p.DateCol, p.AmountCol, p.DescCol) + 1

	var b strings.Builder
	if p.HasHeader {
		header := make([]string, width)
		for i := range header {
			header[i] = fmt.Sprintf("col%d", i)
		}
		header[p.DateCol], header[p.AmountCol], header[p.DescCol] = "date", "amount", "description"
		b.WriteString(strings.Join(header, delim) + "\n")
	}

	out := Export{Entries: make([]provider.Entry, 0, n)}
	for i := 0; i < n; i++ {
		cents := int64(rng.IntN(20000) + 500)
		if rng.IntN(5) > 0 {
			cents = -cents
		}
		entry := provider.Entry{
			Date:        start.AddDate(0, 0, i).UTC(),
			AmountCents: cents,
			Description: fmt.Sprintf("%s %03d", merchants[rng.IntN(len(merchants))], i),
		}
		out.Entries = append(out.Entries, entry)

		written := cents
		if p.Negate {
			written = -written
		}
		amount := fmt.Sprintf("%.2f", float64(written)/100)
		if written > 0 && strings.Contains(p.AmountStrip, "+") {
			amount = "+" + amount
		}

		row := make([]string, width)
		row[p.DateCol] = entry.Date.Format(p.DateFormat)
		row[p.AmountCol] = amount
		row[p.DescCol] = entry.Description
		b.WriteString(strings.Join(row, delim) + "\n")
	}
	out.CSV = b.String()
	return out
}
