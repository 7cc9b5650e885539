package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// FileName is the name of the results table inside the results directory.
const FileName = "results.csv"

// Columns is the header of the results table, in order.
var Columns = []string{
	"x1", "y1", "x2", "y2",
	"score",
	"diameter_1_in_pixels", "diameter_2_in_pixels",
	"surface",
	"image", "well", "t",
	"processing_timestamp",
	"x", "y",
	"particle",
}

// WriteCSV writes rows to path, replacing any existing file.
func WriteCSV(path string, rows []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}

	if err := Encode(f, rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close results file: %w", err)
	}
	return nil
}

// Encode writes the header and rows as CSV to w.
func Encode(w io.Writer, rows []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.X1),
			strconv.Itoa(r.Y1),
			strconv.Itoa(r.X2),
			strconv.Itoa(r.Y2),
			formatFloat(float64(r.Score), 32),
			strconv.Itoa(r.Diameter1),
			strconv.Itoa(r.Diameter2),
			formatFloat(r.Surface, 64),
			r.Image,
			r.Well,
			strconv.Itoa(r.T),
			strconv.FormatInt(r.ProcessingTimestamp, 10),
			formatFloat(r.X, 64),
			formatFloat(r.Y, 64),
			strconv.Itoa(r.Particle),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush results: %w", err)
	}
	return nil
}

// formatFloat renders v in the shortest form that round-trips at bitSize,
// always with a decimal point so readers keep the column a float.
func formatFloat(v float64, bitSize int) string {
	s := strconv.FormatFloat(v, 'f', -1, bitSize)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// ReadCSV reads a table written by WriteCSV.
func ReadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses CSV produced by Encode.
func Decode(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, name := range Columns {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected column %d: got %q, want %q", i, header[i], name)
		}
	}

	rows := make([]Record, 0)
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		rec, err := parseRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// fieldParser collects the first conversion error across a row.
type fieldParser struct {
	fields []string
	err    error
}

func (p *fieldParser) atoi(i int) int {
	v, err := strconv.Atoi(p.fields[i])
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("column %s: %w", Columns[i], err)
	}
	return v
}

func (p *fieldParser) atoi64(i int) int64 {
	v, err := strconv.ParseInt(p.fields[i], 10, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("column %s: %w", Columns[i], err)
	}
	return v
}

func (p *fieldParser) parseFloat(i, bitSize int) float64 {
	v, err := strconv.ParseFloat(p.fields[i], bitSize)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("column %s: %w", Columns[i], err)
	}
	return v
}

func parseRecord(fields []string) (Record, error) {
	p := &fieldParser{fields: fields}
	r := Record{
		X1:                  p.atoi(0),
		Y1:                  p.atoi(1),
		X2:                  p.atoi(2),
		Y2:                  p.atoi(3),
		Score:               float32(p.parseFloat(4, 32)),
		Diameter1:           p.atoi(5),
		Diameter2:           p.atoi(6),
		Surface:             p.parseFloat(7, 64),
		Image:               fields[8],
		Well:                fields[9],
		T:                   p.atoi(10),
		ProcessingTimestamp: p.atoi64(11),
		X:                   p.parseFloat(12, 64),
		Y:                   p.parseFloat(13, 64),
		Particle:            p.atoi(14),
	}
	return r, p.err
}
