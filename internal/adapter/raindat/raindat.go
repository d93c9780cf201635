// Package raindat reads and writes the hourly rainfall artifact consumed by the
// external simulation engine.
//
// Format, one record per wet hour:
//
//	CALGARY_SYN  1991   6  14  16  00  3.2145
//
// Fields are station, year, month, day, hour, minute (always 00) and depth in mm
// with 4 decimals. Month, day and hour are right-aligned to width 2, fields are
// separated by two spaces. Lines starting with ";;" are comments.
package raindat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-wqflow/internal/domain"
)

// DefaultStation is the station identifier the simulation model references.
const DefaultStation = "CALGARY_SYN"

// Record is one wet hour of the artifact.
type Record struct {
	Station string
	Time    time.Time
	DepthMM float64
}

// Write writes every hour above domain.WetHourDepthMM as a record and returns
// the number of records written.
func Write(w io.Writer, series domain.HourlyRainfallSeries, station string, startYear, endYear int) (int, error) {
	bw := bufio.NewWriter(w)

	header := []string{
		";; Synthetic Rainfall Data",
		fmt.Sprintf(";; Period: %d-%d", startYear, endYear),
		";; Generated for continuous simulation",
		";; Station: " + station,
		";;",
	}
	for _, line := range header {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return 0, fmt.Errorf("write rainfall header: %w", err)
		}
	}

	var written int
	for i, v := range series.Values {
		if v <= domain.WetHourDepthMM {
			continue
		}
		ts := series.Time(i)
		if _, err := fmt.Fprintf(bw, "%s  %d  %2d  %2d  %2d  00  %.4f\n",
			station, ts.Year(), int(ts.Month()), ts.Day(), ts.Hour(), v); err != nil {
			return written, fmt.Errorf("write rainfall record %d: %w", written+1, err)
		}
		written++
	}

	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("flush rainfall artifact: %w", err)
	}
	return written, nil
}

// WriteFile writes the artifact to path, creating parent directories.
func WriteFile(path string, series domain.HourlyRainfallSeries, station string, startYear, endYear int) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create rainfall directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create rainfall artifact: %w", err)
	}
	n, err := Write(f, series, station, startYear, endYear)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close rainfall artifact: %w", cerr)
	}
	return n, err
}

// Read parses an artifact written by Write. Comment and blank lines are skipped.
func Read(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		rec, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("rainfall line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read rainfall artifact: %w", err)
	}
	return records, nil
}

func parseRecord(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) != 7 {
		return Record{}, fmt.Errorf("expected 7 fields, got %d: %w", len(fields), domain.ErrInvalidInput)
	}

	var parts [5]int
	for i := range parts {
		n, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return Record{}, fmt.Errorf("field %d %q: %w", i+2, fields[i+1], domain.ErrInvalidInput)
		}
		parts[i] = n
	}
	year, month, day, hour, minute := parts[0], parts[1], parts[2], parts[3], parts[4]

	ts := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	if ts.Year() != year || int(ts.Month()) != month || ts.Day() != day || ts.Hour() != hour || ts.Minute() != minute {
		return Record{}, fmt.Errorf("invalid timestamp %d-%d-%d %d:%d: %w", year, month, day, hour, minute, domain.ErrInvalidInput)
	}

	depth, err := strconv.ParseFloat(fields[6], 64)
	if err != nil || depth < 0 {
		return Record{}, fmt.Errorf("depth %q: %w", fields[6], domain.ErrInvalidInput)
	}

	return Record{Station: fields[0], Time: ts, DepthMM: depth}, nil
}
