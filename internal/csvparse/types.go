// Package csvparse parses delimited bank exports into rows, row errors and
// parse metadata. Row problems are reported as data; only reader failures
// are returned as errors.
package csvparse

import "strconv"

// SkipMode controls which blank rows are dropped.
type SkipMode int

const (
	// SkipNone keeps blank lines as single-field empty rows.
	SkipNone SkipMode = iota
	// SkipEmpty drops rows with no content at all.
	SkipEmpty
	// SkipGreedy drops rows whose fields are all blank after trimming.
	SkipGreedy
)

// Config is the option bag for Parse.
type Config struct {
	// Delimiter overrides detection when non-zero.
	Delimiter rune
	// Header treats the first row as field names.
	Header         bool
	SkipEmptyLines SkipMode
	// Preview stops after this many data rows when > 0.
	Preview          int
	TrimLeadingSpace bool

	// OnRow sees each row as it is produced; returning false aborts.
	OnRow      func(Record) bool
	OnError    func(RowError)
	OnComplete func(Result)
}

// Record is one parsed row.
type Record struct {
	// Index counts data rows from zero, excluding the header.
	Index  int
	Fields []string
	// Named maps header names to values. Repeated header names get _1, _2
	// suffixes. Nil without Header.
	Named map[string]string
}

// Field returns the i-th field or "" when out of range.
func (r Record) Field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// ErrorType groups row errors.
type ErrorType string

const (
	ErrorTypeQuotes        ErrorType = "Quotes"
	ErrorTypeDelimiter     ErrorType = "Delimiter"
	ErrorTypeFieldMismatch ErrorType = "FieldMismatch"
)

// Error codes reported in RowError.Code.
const (
	CodeMissingQuotes         = "MissingQuotes"
	CodeInvalidQuotes         = "InvalidQuotes"
	CodeUndetectableDelimiter = "UndetectableDelimiter"
	CodeInvalidDelimiter      = "InvalidDelimiter"
	CodeTooFewFields          = "TooFewFields"
	CodeTooManyFields         = "TooManyFields"
)

// RowError describes a problem with one row. Row is -1 when the error is
// not tied to a row, as with delimiter detection.
type RowError struct {
	Type    ErrorType
	Code    string
	Message string
	Row     int
}

func (e RowError) Error() string {
	if e.Row < 0 {
		return e.Message
	}
	return "row " + strconv.Itoa(e.Row) + ": " + e.Message
}

// Meta describes how the input was read.
type Meta struct {
	Delimiter rune
	Linebreak string
	Aborted   bool
	Truncated bool
	// Cursor is the byte offset where parsing stopped.
	Cursor int64
	// Fields holds header names when Header is set.
	Fields []string
}

// Result is the full output of Parse.
type Result struct {
	Rows   []Record
	Errors []RowError
	Meta   Meta
}
