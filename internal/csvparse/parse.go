package csvparse

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// candidate delimiters in preference order
var candidates = []rune{',', '\t', '|', ';'}

const detectSample = 10

// ParseString parses s. It cannot fail since the input is already in memory.
func ParseString(s string, cfg Config) Result {
	res, _ := Parse(strings.NewReader(s), cfg)
	return res
}

// Parse reads all of r and parses it according to cfg.
func Parse(r io.Reader, cfg Config) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read input: %w", err)
	}

	p := &parser{cfg: cfg}
	p.res.Meta.Linebreak = detectLinebreak(data)
	if p.res.Meta.Linebreak == "\r" {
		data = normalizeCR(data)
	}
	p.data = data

	delim := cfg.Delimiter
	if delim != 0 && !validDelimiter(delim) {
		p.addError(RowError{
			Type:    ErrorTypeDelimiter,
			Code:    CodeInvalidDelimiter,
			Message: fmt.Sprintf("invalid delimiter %q; auto-detecting instead", delim),
			Row:     -1,
		})
		delim = 0
	}
	if delim == 0 {
		d, ok := detectDelimiter(data)
		if !ok && len(bytes.TrimSpace(data)) > 0 {
			p.addError(RowError{
				Type:    ErrorTypeDelimiter,
				Code:    CodeUndetectableDelimiter,
				Message: "unable to auto-detect delimiting character; defaulted to ','",
				Row:     -1,
			})
		}
		delim = d
	}
	p.res.Meta.Delimiter = delim
	p.run(delim)

	if cfg.OnComplete != nil {
		cfg.OnComplete(p.res)
	}
	return p.res, nil
}

type parser struct {
	cfg  Config
	data []byte
	res  Result
}

func (p *parser) run(delim rune) {
	cr := csv.NewReader(bytes.NewReader(p.data))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = p.cfg.TrimLeadingSpace

	headerDone := !p.cfg.Header
	for {
		// encoding/csv silently drops blank lines; surface them when asked to.
		if blanks := p.blankLinesAt(cr.InputOffset()); blanks > 0 && headerDone && p.cfg.SkipEmptyLines == SkipNone {
			for i := 0; i < blanks; i++ {
				if !p.emit([]string{""}) {
					return
				}
			}
		}

		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				p.addError(RowError{Type: ErrorTypeQuotes, Code: CodeInvalidQuotes, Message: err.Error(), Row: len(p.res.Rows)})
				break
			}
			p.addError(quoteError(pe, len(p.res.Rows)))
			p.res.Meta.Cursor = cr.InputOffset()
			continue
		}
		if !headerDone {
			p.res.Meta.Fields = uniqueNames(rec)
			headerDone = true
			p.res.Meta.Cursor = cr.InputOffset()
			continue
		}
		if !p.emit(rec) {
			if p.res.Meta.Aborted {
				p.res.Meta.Cursor = cr.InputOffset()
			}
			return
		}
		p.res.Meta.Cursor = cr.InputOffset()
	}
	p.res.Meta.Cursor = cr.InputOffset()
}

// emit applies skipping, preview and header mapping. It returns false when parsing should stop.
func (p *parser) emit(fields []string) bool {
	switch p.cfg.SkipEmptyLines {
	case SkipEmpty:
		if len(fields) == 1 && fields[0] == "" {
			return true
		}
	case SkipGreedy:
		blank := true
		for _, f := range fields {
			if strings.TrimSpace(f) != "" {
				blank = false
				break
			}
		}
		if blank {
			return true
		}
	}

	if p.cfg.Preview > 0 && len(p.res.Rows) >= p.cfg.Preview {
		p.res.Meta.Truncated = true
		return false
	}

	rec := Record{Index: len(p.res.Rows), Fields: fields}
	if p.cfg.Header {
		header := p.res.Meta.Fields
		rec.Named = make(map[string]string, len(header))
		for i, name := range header {
			if i < len(fields) {
				rec.Named[name] = fields[i]
			}
		}
		switch {
		case len(fields) < len(header):
			p.addError(RowError{
				Type:    ErrorTypeFieldMismatch,
				Code:    CodeTooFewFields,
				Message: fmt.Sprintf("too few fields: expected %d fields but parsed %d", len(header), len(fields)),
				Row:     rec.Index,
			})
		case len(fields) > len(header):
			p.addError(RowError{
				Type:    ErrorTypeFieldMismatch,
				Code:    CodeTooManyFields,
				Message: fmt.Sprintf("too many fields: expected %d fields but parsed %d", len(header), len(fields)),
				Row:     rec.Index,
			})
		}
	}

	p.res.Rows = append(p.res.Rows, rec)
	if p.cfg.OnRow != nil && !p.cfg.OnRow(rec) {
		p.res.Meta.Aborted = true
		return false
	}
	return true
}

func (p *parser) addError(e RowError) {
	p.res.Errors = append(p.res.Errors, e)
	if p.cfg.OnError != nil {
		p.cfg.OnError(e)
	}
}

// blankLinesAt counts consecutive empty lines starting at off.
func (p *parser) blankLinesAt(off int64) int {
	rest := p.data[off:]
	n := 0
	for {
		switch {
		case bytes.HasPrefix(rest, []byte("\r\n")):
			rest = rest[2:]
		case bytes.HasPrefix(rest, []byte("\n")):
			rest = rest[1:]
		default:
			return n
		}
		n++
	}
}

func quoteError(pe *csv.ParseError, row int) RowError {
	code := CodeInvalidQuotes
	if errors.Is(pe.Err, csv.ErrQuote) {
		code = CodeMissingQuotes
	}
	return RowError{
		Type:    ErrorTypeQuotes,
		Code:    code,
		Message: fmt.Sprintf("line %d, column %d: %v", pe.StartLine, pe.Column, pe.Err),
		Row:     row,
	}
}

// normalizeCR turns bare \r line breaks into \n. A \r inside a quoted field
// is part of the value and is left alone.
func normalizeCR(data []byte) []byte {
	out := make([]byte, len(data))
	inQuotes := false
	for i, b := range data {
		switch {
		case b == '"':
			inQuotes = !inQuotes
		case b == '\r' && !inQuotes:
			b = '\n'
		}
		out[i] = b
	}
	return out
}

func validDelimiter(r rune) bool {
	return r != '"' && r != '\r' && r != '\n' && utf8.ValidRune(r) && r != utf8.RuneError
}

// uniqueNames suffixes repeated header names with _1, _2 and so on so that
// no column is lost from Record.Named.
func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		seen[h] = true
	}
	taken := make(map[string]bool, len(header))
	for i, h := range header {
		name := h
		for n := 1; taken[name] || (name != h && seen[name]); n++ {
			name = h + "_" + strconv.Itoa(n)
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

func detectLinebreak(data []byte) string {
	i := bytes.IndexAny(data, "\r\n")
	switch {
	case i < 0:
		return "\n"
	case data[i] == '\n':
		return "\n"
	case i+1 < len(data) && data[i+1] == '\n':
		return "\r\n"
	default:
		return "\r"
	}
}

// detectDelimiter picks the candidate whose first rows have the most stable
// field count above one. Ties go to the higher average count.
func detectDelimiter(data []byte) (rune, bool) {
	best := ','
	bestDelta, bestAvg := -1, 0.0
	for _, d := range candidates {
		cr := csv.NewReader(bytes.NewReader(data))
		cr.Comma = d
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true

		var counts []int
		for len(counts) < detectSample {
			rec, err := cr.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				continue
			}
			counts = append(counts, len(rec))
		}
		if len(counts) == 0 {
			continue
		}

		delta, sum := 0, 0
		for i, c := range counts {
			sum += c
			if i > 0 {
				diff := c - counts[i-1]
				if diff < 0 {
					diff = -diff
				}
				delta += diff
			}
		}
		avg := float64(sum) / float64(len(counts))
		if avg < 2 {
			continue
		}
		if bestDelta < 0 || delta < bestDelta || (delta == bestDelta && avg > bestAvg) {
			best, bestDelta, bestAvg = d, delta, avg
		}
	}
	return best, bestDelta >= 0
}
