package service

import (
	"context"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/jask/jaskbills/internal/database/repository"
)

const similarWindowDays = 7

// Similar returns bills with the same amount within a week of b whose
// descriptions are close by edit distance. b itself is excluded.
func (s *BillService) Similar(ctx context.Context, b repository.Bill) ([]repository.Bill, error) {
	candidates, err := s.Bills.List(ctx, repository.BillFilters{AccountID: b.AccountID})
	if err != nil {
		return nil, err
	}
	var out []repository.Bill
	for _, c := range candidates {
		if c.ID == b.ID {
			continue
		}
		if matchFuzzyCandidate(b, c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func matchFuzzyCandidate(a, b repository.Bill) bool {
	if a.AmountCents != b.AmountCents {
		return false
	}
	if daysApart(a.Date, b.Date) > similarWindowDays {
		return false
	}
	maxlen := max(len(a.Description), len(b.Description))
	if maxlen == 0 {
		return true
	}
	dist := levenshtein.ComputeDistance(strings.ToUpper(a.Description), strings.ToUpper(b.Description))
	return float64(dist)/float64(maxlen) < 0.4
}

func daysApart(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}
