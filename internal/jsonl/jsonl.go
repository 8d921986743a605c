// Package jsonl encodes and decodes newline-delimited JSON, the wire
// encoding used by bulk document import and export.
package jsonl

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Encode renders items as one JSON object per line, newline-joined.
func Encode[T any](items []T) ([]byte, error) {
	var buf bytes.Buffer
	for i, item := range items {
		line, err := json.Marshal(item)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding item %d", i)
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(line)
	}
	return buf.Bytes(), nil
}

// Decode parses one value of type T per non-blank line.
func Decode[T any](data []byte) ([]T, error) {
	lines := Lines(data)
	items := make([]T, 0, len(lines))
	for i, line := range lines {
		var item T
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, errors.Wrapf(err, "decoding line %d", i)
		}
		items = append(items, item)
	}
	return items, nil
}

// Lines splits data on newlines, dropping blank lines. A trailing newline
// does not produce an extra entry.
func Lines(data []byte) [][]byte {
	raw := bytes.Split(data, []byte("\n"))
	lines := make([][]byte, 0, len(raw))
	for _, line := range raw {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
