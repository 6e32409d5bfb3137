// Package importer parses delimited transaction files into normalized
// transactions. Files may use comma, semicolon or tab delimiters; the
// delimiter is sniffed from the header line.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dverbeek/portfolio-tracker/internal/model"
)

// ParseError reports a failure tied to a specific row of the input.
// Row 1 is the header; data rows start at 2. Row 0 means the error is
// not row-specific.
type ParseError struct {
	Row int
	Err error
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

var dateFormats = []string{"2006-01-02", "01/02/2006", "02/01/2006", "2006/01/02"}

// ParseFile reads and parses one transaction file.
func ParseFile(path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads delimited transaction rows. The header must contain
// date, asset and action columns (any case); amount, quantity,
// ave_price, source and comment are optional. Every row is normalized,
// so BUY/SELL rows leave the parser with all three of amount, quantity
// and ave_price populated.
func Parse(r io.Reader) ([]model.Transaction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	content := strings.TrimPrefix(string(data), "\uFEFF") // strip BOM

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = sniffDelimiter(content)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("failed to read header: %w", err)}
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "asset", "action"} {
		if _, ok := columns[required]; !ok {
			return nil, &ParseError{Err: fmt.Errorf("missing required column: %s", required)}
		}
	}

	var txns []model.Transaction
	for rowNum := 2; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Row: rowNum, Err: err}
		}

		txn, err := parseRow(record, columns)
		if err != nil {
			return nil, &ParseError{Row: rowNum, Err: err}
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func parseRow(record []string, columns map[string]int) (model.Transaction, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	date, err := parseDate(field("date"))
	if err != nil {
		return model.Transaction{}, err
	}
	act, err := model.ParseAction(field("action"))
	if err != nil {
		return model.Transaction{}, err
	}

	txn := model.Transaction{
		Date:    date,
		Asset:   field("asset"),
		Action:  act,
		Source:  field("source"),
		Comment: field("comment"),
	}
	if txn.Amount, err = parseDecimal(field("amount")); err != nil {
		return model.Transaction{}, err
	}
	if txn.Quantity, err = parseDecimal(field("quantity")); err != nil {
		return model.Transaction{}, err
	}
	if txn.AvePrice, err = parseDecimal(field("ave_price")); err != nil {
		return model.Transaction{}, err
	}

	if err := txn.Normalize(); err != nil {
		return model.Transaction{}, err
	}
	return txn, nil
}

func parseDate(value string) (time.Time, error) {
	for _, format := range dateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format: %q", value)
}

func parseDecimal(value string) (decimal.NullDecimal, error) {
	if value == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid decimal value: %q", value)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

// sniffDelimiter picks the delimiter that appears most often in the
// first line, defaulting to comma.
func sniffDelimiter(content string) rune {
	line := content
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}

	best := ','
	bestCount := strings.Count(line, ",")
	for _, candidate := range []rune{';', '\t'} {
		if count := strings.Count(line, string(candidate)); count > bestCount {
			best = candidate
			bestCount = count
		}
	}
	return best
}
