package example

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// LoadPoints reads data points from a CSV file, one point per row, one
// coordinate per column. All rows must have the same number of columns.
func LoadPoints(path string, skipHeader bool) ([][]float32, error) {
	points, err := readCSV[float32](path, skipHeader)
	if err != nil {
		return nil, err
	}
	for i, p := range points {
		if len(p) != len(points[0]) {
			return nil, fmt.Errorf("row %d of %s has %d columns, want %d", i, path, len(p), len(points[0]))
		}
	}
	log.Info().Msgf("Loaded %d points from %s", len(points), path)
	return points, nil
}

// readCSV is a generic CSV reader for types: float32 and float64.
func readCSV[T float32 | float64](path string, skipHeader bool) ([][]T, error) {
	log.Debug().Msgf("Opening CSV file: %s", path)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	var result [][]T

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read error in %s: %w", path, err)
		}
		if skipHeader {
			skipHeader = false
			continue
		}
		row := make([]T, len(record))
		for i, val := range record {
			parsed, err := parseValue[T](val)
			if err != nil {
				return nil, fmt.Errorf("parse error at col %d in %s: %w", i, path, err)
			}
			row[i] = parsed
		}
		result = append(result, row)
	}

	log.Debug().Msgf("Parsed %d rows from %s", len(result), path)
	return result, nil
}

// parseValue converts a string to T (float32 or float64).
func parseValue[T float32 | float64](s string) (T, error) {
	s = strings.TrimSpace(s)
	var zero T
	switch any(zero).(type) {
	case float32:
		v, err := strconv.ParseFloat(s, 32)
		return any(float32(v)).(T), err
	case float64:
		v, err := strconv.ParseFloat(s, 64)
		return any(v).(T), err
	default:
		return zero, fmt.Errorf("unsupported type %T", zero)
	}
}
