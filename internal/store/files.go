package store

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV reads a header-keyed CSV file, tolerating a UTF-8 BOM and ragged
// rows. Keys and values are trimmed. Any error yields nil.
func ReadCSV(path string) []map[string]string {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	b = bytes.TrimPrefix(b, utf8BOM)
	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.ReplaceAll(header[i], "\ufeff", ""))
	}

	var rows []map[string]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		row := make(map[string]string, len(header))
		for i, key := range header {
			if key == "" {
				continue
			}
			v := ""
			if i < len(rec) {
				v = strings.TrimSpace(rec[i])
			}
			row[key] = v
		}
		rows = append(rows, row)
	}
	return rows
}

// ReadJSONFile decodes any JSON document. ok is false on read or parse errors.
func ReadJSONFile(path string) (any, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	b = bytes.TrimPrefix(b, utf8BOM)
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false
	}
	return v, true
}

func readJSONObject(path string) (map[string]any, bool) {
	v, ok := ReadJSONFile(path)
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}
