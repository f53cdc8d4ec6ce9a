package source

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

var errMissingHeader = errors.New("missing header")

// Table is a spreadsheet with its header row split off.
type Table struct {
	Header []string
	Rows   [][]string
}

// Records maps each row onto the header. Empty cells become nil and extra cells are dropped.
func (t Table) Records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(t.Header))
		for i, name := range t.Header {
			if name == "" {
				continue
			}
			var v any
			if i < len(row) {
				if cell := strings.TrimSpace(row[i]); cell != "" {
					v = cell
				}
			}
			rec[name] = v
		}
		out = append(out, rec)
	}
	return out
}

func (t Table) JSON() (string, error) {
	data, err := json.Marshal(t.Records())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadCSV reads a comma separated file with a header row. A UTF-8 BOM is skipped.
func ReadCSV(r io.Reader) (Table, error) {
	br := stripUTF8BOM(bufio.NewReader(r))
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return Table{}, errMissingHeader
		}
		return Table{}, err
	}
	header, err = cleanHeader(header)
	if err != nil {
		return Table{}, err
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, err
		}
		if blank(row) {
			continue
		}
		rows = append(rows, row)
	}
	return Table{Header: header, Rows: rows}, nil
}

// ReadXLSX reads the first sheet of a workbook, its first row being the header.
func ReadXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, fmt.Errorf("workbook has no sheet")
	}
	all, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, err
	}
	if len(all) == 0 {
		return Table{}, errMissingHeader
	}

	header, err := cleanHeader(all[0])
	if err != nil {
		return Table{}, err
	}
	var rows [][]string
	for _, row := range all[1:] {
		if !blank(row) {
			rows = append(rows, row)
		}
	}
	return Table{Header: header, Rows: rows}, nil
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

func cleanHeader(h []string) ([]string, error) {
	out := make([]string, len(h))
	empty := true
	for i := range h {
		out[i] = strings.TrimSpace(h[i])
		if !utf8.ValidString(out[i]) {
			return nil, fmt.Errorf("invalid header encoding")
		}
		if out[i] != "" {
			empty = false
		}
	}
	if empty {
		return nil, errMissingHeader
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
