// Package importer turns raw roster rows from JSON, CSV or a spreadsheet into
// student records ready for a replace-all import.
package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"studentspend/internal/core"
)

const regNoWidth = 8

// Header aliases accepted for each column, in lookup order.
var (
	regNoHeaders   = []string{"regNo", "RegNo", "Registration Number"}
	nameHeaders    = []string{"Name", "name"}
	emailHeaders   = []string{"Email", "email"}
	sectionHeaders = []string{"Section", "section"}
)

// RowError reports a row that could not be turned into a student. Row is
// 1-based and counts data rows only.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

var ErrDuplicateRegNo = errors.New("duplicate registration number")

// ReadJSON decodes an array of objects.
func ReadJSON(r io.Reader) ([]map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode roster json: %w", err)
	}
	return rows, nil
}

// ReadCSV reads a header row followed by data rows.
func ReadCSV(r io.Reader) ([]map[string]any, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read roster csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := records[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(headers[i], "\ufeff"))
	}

	rows := make([]map[string]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]any, len(headers))
		blank := true
		for i, h := range headers {
			if h == "" || i >= len(rec) {
				continue
			}
			if v := strings.TrimSpace(rec[i]); v != "" {
				row[h] = v
				blank = false
			}
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// Normalize maps rows to students. Registration numbers are stringified and
// left-padded with zeros to eight digits; missing names and emails get
// "Student N" and "studentN@university.edu". Every student starts with the
// default budget and zero income.
func Normalize(rows []map[string]any) ([]core.Student, error) {
	students := make([]core.Student, 0, len(rows))
	seen := make(map[string]int, len(rows))

	for i, row := range rows {
		n := i + 1

		regNo := padRegNo(lookup(row, regNoHeaders))
		if regNo == "" {
			return nil, &RowError{Row: n, Err: core.ErrEmptyRegNo}
		}
		if err := core.ValidateRegNo(regNo); err != nil {
			return nil, &RowError{Row: n, Err: fmt.Errorf("%q: %w", regNo, err)}
		}
		if first, dup := seen[regNo]; dup {
			return nil, &RowError{Row: n, Err: fmt.Errorf("%w %s (first seen in row %d)", ErrDuplicateRegNo, regNo, first)}
		}
		seen[regNo] = n

		name := lookup(row, nameHeaders)
		if name == "" {
			name = fmt.Sprintf("Student %d", n)
		}
		email := lookup(row, emailHeaders)
		if email == "" {
			email = fmt.Sprintf("student%d@university.edu", n)
		}

		st := core.NewStudent(regNo, name)
		st.Email = email
		st.Section = lookup(row, sectionHeaders)
		students = append(students, st)
	}
	return students, nil
}

func lookup(row map[string]any, headers []string) string {
	for _, h := range headers {
		if v, ok := row[h]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func padRegNo(s string) string {
	if s == "" || len(s) >= regNoWidth {
		return s
	}
	return strings.Repeat("0", regNoWidth-len(s)) + s
}
