package catalog

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"thefix/internal/domain"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// stripBOM consumes a leading UTF-8 BOM so it cannot leak into the
// first header column.
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if lead, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(lead, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// FromCSV parses tabular input (header row required, one option per
// row) into catalog entries. The result is grouped and normalized but
// not yet validated as a whole; run Prepare on it.
func FromCSV(r io.Reader) ([]domain.ServiceEntry, error) {
	cr := csv.NewReader(stripBOM(r))
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv input is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		row := make(map[string]string, len(header))
		empty := true
		for i, col := range header {
			if i >= len(rec) {
				break
			}
			v := strings.TrimSpace(rec[i])
			row[col] = v
			if v != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}

	return GroupRows(rows)
}

// FromJSON parses JSON input: either an array of service records or an
// object with a "services" array.
func FromJSON(data []byte) ([]domain.ServiceEntry, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	var items []any
	switch t := doc.(type) {
	case []any:
		items = t
	case map[string]any:
		list, ok := t["services"].([]any)
		if !ok {
			return nil, fmt.Errorf("json input must be an array of services or an object with a services array")
		}
		items = list
	default:
		return nil, fmt.Errorf("json input must be an array of services or an object with a services array")
	}

	out := make([]domain.ServiceEntry, 0, len(items))
	for i, it := range items {
		rec, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("entry %d: expected an object", i)
		}
		e, err := NormalizeRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
