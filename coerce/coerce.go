package coerce

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// timestampFormats are tried in order by Timestamp.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Decimal parses a European-convention decimal string: "." is stripped
// as a thousands separator, "," becomes the decimal point. Empty, "NA"
// and "NULL" (case-insensitive) yield null, as does any parse failure.
func Decimal(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "NA") || strings.EqualFold(s, "NULL") {
		return decimal.NullDecimal{}
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// Int parses an integer string. A strict digit string parses directly;
// anything else is reduced to its digit characters first. Null when no
// digits remain or the result overflows int64.
func Int(s string) sql.NullInt64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullInt64{}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return sql.NullInt64{Int64: n, Valid: true}
	}
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return sql.NullInt64{}
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}

// DateCompact parses an 8-digit YYYYMMDD date. Any other shape yields
// null.
func DateCompact(s string) sql.NullTime {
	s = strings.TrimSpace(s)
	if len(s) != 8 {
		return sql.NullTime{}
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// Timestamp parses a timestamp trying each accepted format in order and
// returning the first success. Null when none match.
func Timestamp(s string) sql.NullTime {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullTime{}
	}
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return sql.NullTime{Time: t, Valid: true}
		}
	}
	return sql.NullTime{}
}
