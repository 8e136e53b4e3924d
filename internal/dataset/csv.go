// Package dataset reads and writes point lists as "x,y" text rows.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/curvefit/internal/fit"
	"github.com/spf13/cast"
)

// ErrNoValidRows is returned when an import yields no point at all.
var ErrNoValidRows = errors.New("no valid x,y rows")

// ImportStats describes what an import kept and dropped.
type ImportStats struct {
	Rows    int `json:"rows"`
	Skipped int `json:"skipped"`
}

// Import parses rows of at least two comma-separated numbers. The first two
// columns are x and y; further columns are ignored. Rows that do not yield
// two finite numbers are skipped. If nothing is left, ErrNoValidRows is
// returned so the caller can keep its previous points.
func Import(r io.Reader) ([]fit.Point, ImportStats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var (
		points []fit.Point
		stats  ImportStats
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				stats.Rows++
				stats.Skipped++
				continue
			}
			return nil, stats, fmt.Errorf("read rows: %w", err)
		}
		stats.Rows++

		p, ok := parseRecord(record)
		if !ok {
			stats.Skipped++
			continue
		}
		points = append(points, p)
	}

	if len(points) == 0 {
		return nil, stats, ErrNoValidRows
	}
	return points, stats, nil
}

// ImportString is Import over an in-memory text.
func ImportString(text string) ([]fit.Point, ImportStats, error) {
	return Import(strings.NewReader(text))
}

func parseRecord(record []string) (fit.Point, bool) {
	if len(record) < 2 {
		return fit.Point{}, false
	}
	x, ok := parseNumber(record[0])
	if !ok {
		return fit.Point{}, false
	}
	y, ok := parseNumber(record[1])
	if !ok {
		return fit.Point{}, false
	}
	return fit.Point{X: x, Y: y}, true
}

func parseNumber(cell string) (float64, bool) {
	v, err := cast.ToFloat64E(strings.TrimSpace(cell))
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Export writes points as "x,y" rows using the shortest exact representation.
func Export(w io.Writer, points []fit.Point) error {
	writer := csv.NewWriter(w)
	for _, p := range points {
		record := []string{
			strconv.FormatFloat(p.X, 'g', -1, 64),
			strconv.FormatFloat(p.Y, 'g', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
