// Package provider describes the bank export formats a bill file can be read with.
package provider

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jask/jaskbills/internal/csvparse"
)

// Provider is one parser configuration, keyed by ID.
type Provider struct {
	ID          string `toml:"-"`
	Name        string `toml:"name"`
	Delimiter   string `toml:"delimiter"`
	HasHeader   bool   `toml:"has_header"`
	SkipEmpty   string `toml:"skip_empty"`
	DateFormat  string `toml:"date_format"`
	DateCol     int    `toml:"date_col"`
	AmountCol   int    `toml:"amount_col"`
	DescCol     int    `toml:"desc_col"`
	DescJoin    bool   `toml:"desc_join"`
	AmountStrip string `toml:"amount_strip"`
	Negate      bool   `toml:"negate"`
}

// Entry is the bill data extracted from one row.
type Entry struct {
	Date        time.Time
	AmountCents int64
	Description string
}

// Defaults returns the built-in providers.
func Defaults() []Provider {
	return []Provider{
		{ID: "anz", Name: "ANZ", Delimiter: ",", SkipEmpty: "greedy", DateFormat: "2/01/2006", DateCol: 0, AmountCol: 1, DescCol: 2},
		{ID: "cba", Name: "Commonwealth Bank", Delimiter: ",", SkipEmpty: "greedy", DateFormat: "02/01/2006", DateCol: 0, AmountCol: 1, DescCol: 2, AmountStrip: "+"},
		{ID: "generic", Name: "Generic (date, description, amount)", HasHeader: true, SkipEmpty: "greedy", DateFormat: "2006-01-02", DateCol: 0, AmountCol: 2, DescCol: 1},
	}
}

// Validate checks the fields a parse depends on.
func (p Provider) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("provider id is required")
	}
	if strings.TrimSpace(p.DateFormat) == "" {
		return fmt.Errorf("provider %s: date_format is required", p.ID)
	}
	if p.DateCol < 0 || p.AmountCol < 0 || p.DescCol < 0 {
		return fmt.Errorf("provider %s: column indexes must be >= 0", p.ID)
	}
	if utf8.RuneCountInString(p.Delimiter) > 1 {
		return fmt.Errorf("provider %s: delimiter must be a single character", p.ID)
	}
	switch strings.ToLower(strings.TrimSpace(p.SkipEmpty)) {
	case "", "none", "empty", "greedy":
	default:
		return fmt.Errorf("provider %s: skip_empty must be none, empty or greedy", p.ID)
	}
	return nil
}

// ParseConfig maps the provider onto csvparse options.
func (p Provider) ParseConfig() csvparse.Config {
	cfg := csvparse.Config{
		Header:           p.HasHeader,
		TrimLeadingSpace: true,
	}
	if r, _ := utf8.DecodeRuneInString(p.Delimiter); r != utf8.RuneError {
		cfg.Delimiter = r
	}
	switch strings.ToLower(strings.TrimSpace(p.SkipEmpty)) {
	case "none":
		cfg.SkipEmptyLines = csvparse.SkipNone
	case "empty":
		cfg.SkipEmptyLines = csvparse.SkipEmpty
	default:
		cfg.SkipEmptyLines = csvparse.SkipGreedy
	}
	return cfg
}

// Extract converts a parsed row into an Entry. Dates are read in loc and returned as UTC.
func (p Provider) Extract(rec csvparse.Record, loc *time.Location) (Entry, error) {
	if loc == nil {
		loc = time.Local
	}
	need := max(p.DateCol, p.AmountCol, p.DescCol)
	if len(rec.Fields) <= need {
		return Entry{}, fmt.Errorf("expected at least %d columns, got %d", need+1, len(rec.Fields))
	}

	date, err := time.ParseInLocation(p.DateFormat, strings.TrimSpace(rec.Field(p.DateCol)), loc)
	if err != nil {
		return Entry{}, fmt.Errorf("date: %w", err)
	}

	raw := rec.Field(p.AmountCol)
	for _, r := range p.AmountStrip {
		raw = strings.ReplaceAll(raw, string(r), "")
	}
	cents, err := dollarsToCents(raw)
	if err != nil {
		return Entry{}, fmt.Errorf("amount: %w", err)
	}
	if p.Negate {
		cents = -cents
	}

	desc := strings.TrimSpace(rec.Field(p.DescCol))
	if p.DescJoin {
		parts := make([]string, 0, len(rec.Fields)-p.DescCol)
		for _, f := range rec.Fields[p.DescCol:] {
			if f = strings.TrimSpace(f); f != "" {
				parts = append(parts, f)
			}
		}
		desc = strings.Join(parts, " ")
	}

	return Entry{Date: date.UTC(), AmountCents: cents, Description: desc}, nil
}

// maxDollars keeps cents well inside int64 and inside float64's exact integer range.
const maxDollars = 1e13

func dollarsToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.ReplaceAll(s, "$", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite amount", s)
	}
	if math.Abs(f) > maxDollars {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return int64(math.Round(f * 100)), nil
}
