package utils

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV reads every row of a hand-maintained CSV file. Rows may have
// different lengths, lines starting with # are skipped, leading spaces are
// trimmed and a UTF-8 byte order mark is ignored.
func ParseCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	return reader.ReadAll()
}
