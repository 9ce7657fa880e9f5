package sources

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeBestEffort decodes raw file bytes into a string. Valid UTF-8
// (with or without a BOM) is passed through; anything else is decoded
// as ISO 8859-1, which maps every byte and so always succeeds.
func DecodeBestEffort(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		// ISO 8859-1 decoding cannot fail; keep the raw bytes if it
		// somehow does.
		return string(data)
	}
	return string(decoded)
}

// Row is a single CSV record addressed by column name.
type Row struct {
	fields []string
	index  map[string]int
}

// Get returns the trimmed value of the named column, or "" when the
// column is absent or the row is short.
func (r Row) Get(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// CSVReader streams header-addressed rows from a CSV document.
type CSVReader struct {
	reader *csv.Reader
	index  map[string]int
}

// NewCSVReader wraps an already-decoded CSV document. The first record
// is consumed as the header.
func NewCSVReader(r io.Reader) (*CSVReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoHeader, err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	return &CSVReader{reader: cr, index: index}, nil
}

// OpenCSV opens path with best-effort encoding resolution and returns a
// row reader over its contents.
func OpenCSV(path string) (*CSVReader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return NewCSVReader(strings.NewReader(DecodeBestEffort(data)))
}

// Next returns the next row, or io.EOF when the document is exhausted.
func (c *CSVReader) Next() (Row, error) {
	fields, err := c.reader.Read()
	if err != nil {
		return Row{}, err
	}
	return Row{fields: fields, index: c.index}, nil
}
