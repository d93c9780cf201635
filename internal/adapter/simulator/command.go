// Package simulator runs the external continuous-simulation engine as a
// subprocess and converts its link flow report into an hourly series.
package simulator

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-wqflow/internal/domain"
)

// timeLayouts are the timestamp formats accepted in the flow report.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006 15:04:05",
}

// CommandSimulator invokes `<command> <model path> <link id>` with
// RAINFALL_PATH set in its environment. The command must write one
// "timestamp,flow" CSV record per report step to stdout; a header row is allowed.
type CommandSimulator struct {
	command string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewCommandSimulator parses command into program and leading arguments.
// A zero timeout leaves the run bounded only by the caller's context.
func NewCommandSimulator(command string, timeout time.Duration, logger *slog.Logger) *CommandSimulator {
	fields := strings.Fields(command)
	s := &CommandSimulator{timeout: timeout, logger: logger}
	if len(fields) > 0 {
		s.command = fields[0]
		s.args = fields[1:]
	}
	return s
}

// Run executes one simulation and returns the hourly absolute flow at the link.
func (s *CommandSimulator) Run(ctx context.Context, model domain.CatchmentModel) (domain.FlowSeries, error) {
	if s.command == "" {
		return domain.FlowSeries{}, fmt.Errorf("no simulator command configured: %w", domain.ErrUpstreamFailure)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	args := append(append([]string{}, s.args...), model.ModelPath, model.LinkID)
	cmd := exec.CommandContext(ctx, s.command, args...)
	cmd.Env = append(os.Environ(), "RAINFALL_PATH="+model.RainfallPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	s.logger.Info("simulation starting",
		"command", s.command, "model", model.ModelPath, "link", model.LinkID, "rainfall", model.RainfallPath)
	start := domain.Now()

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		s.logger.Error("simulation failed", "error", err, "stderr", tail(stderr.String(), 512))
		return domain.FlowSeries{}, fmt.Errorf("run simulator %s: %v: %w", s.command, err, domain.ErrUpstreamFailure)
	}

	samples, err := ParseReport(&stdout)
	if err != nil {
		return domain.FlowSeries{}, fmt.Errorf("parse simulator report: %v: %w", err, domain.ErrUpstreamFailure)
	}
	if len(samples) == 0 {
		return domain.FlowSeries{}, fmt.Errorf("simulator reported no flow samples: %w", domain.ErrUpstreamFailure)
	}

	series, err := domain.ResampleHourly(samples)
	if err != nil {
		return domain.FlowSeries{}, fmt.Errorf("resample simulator report: %v: %w", err, domain.ErrUpstreamFailure)
	}

	s.logger.Info("simulation complete",
		"samples", len(samples), "hours", len(series.Flows), "duration", domain.Since(start))
	return series, nil
}

// ParseReport reads "timestamp,flow" records. A first row whose timestamp does
// not parse is treated as a header.
func ParseReport(r io.Reader) ([]domain.FlowSample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var samples []domain.FlowSample
	for row := 1; ; row++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return samples, nil
		}
		if err != nil {
			return nil, err
		}

		ts, tsErr := parseTime(rec[0])
		if tsErr != nil {
			if row == 1 {
				continue
			}
			return nil, fmt.Errorf("row %d: %w", row, tsErr)
		}
		flow, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: flow %q: %w", row, rec[1], err)
		}
		samples = append(samples, domain.FlowSample{Time: ts, Flow: flow})
	}
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
