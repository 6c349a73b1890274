package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidHeader is returned when a CSV header does not match Columns.
var ErrInvalidHeader = errors.New("invalid csv header")

// encoding/csv reads a quoted "\r\n" back as "\n", so carriage returns are
// written as the two characters `\r` and backslashes are doubled.
var (
	fieldEscaper   = strings.NewReplacer(`\`, `\\`, "\r", `\r`)
	fieldUnescaper = strings.NewReplacer(`\\`, `\`, `\r`, "\r")
)

func escapeFields(values []string) []string {
	for i, v := range values {
		values[i] = fieldEscaper.Replace(v)
	}
	return values
}

func unescapeFields(values []string) []string {
	for i, v := range values {
		values[i] = fieldUnescaper.Replace(v)
	}
	return values
}

// WriteCSV writes the header and every row to w. Carriage returns and
// backslashes in fields are escaped; ReadCSV reverses it.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range t.Rows() {
		if err := cw.Write(escapeFields(r.Values())); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table previously written by WriteCSV.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrInvalidHeader)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if strings.Join(header, ",") != strings.Join(Columns, ",") {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, header)
	}

	t := New()
	for {
		values, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", t.Len(), err)
		}
		t.Append(recordFromValues(unescapeFields(values)))
	}
	return t, nil
}
