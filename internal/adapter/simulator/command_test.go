package simulator

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/storm-data-wqflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeScript creates an executable shell script and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "sim.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

var testModel = domain.CatchmentModel{ModelPath: "model.inp", RainfallPath: "rain.dat", LinkID: "Link_1"}

func TestParseReport(t *testing.T) {
	input := strings.Join([]string{
		"timestamp,flow",
		"# comment",
		"1991-01-01 00:00:00, 0.5",
		"1991-01-01T00:15:00Z,0.7",
		"1991-01-01 01:00:00,-0.25",
	}, "\n")

	samples, err := ParseReport(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.InDelta(t, 0.5, samples[0].Flow, 0)
	assert.Equal(t, time.Date(1991, 1, 1, 0, 15, 0, 0, time.UTC), samples[1].Time)
	assert.InDelta(t, -0.25, samples[2].Flow, 0)
}

func TestParseReport_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad timestamp after first row", "1991-01-01 00:00:00,0.5\nyesterday,0.5\n"},
		{"bad flow", "1991-01-01 00:00:00,lots\n"},
		{"wrong field count", "1991-01-01 00:00:00,0.5,extra\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReport(strings.NewReader(tt.input))
			require.Error(t, err)
		})
	}
}

func TestRun_Success(t *testing.T) {
	script := writeScript(t, `
[ "$1" = "model.inp" ] || exit 3
[ "$2" = "Link_1" ] || exit 4
[ "$RAINFALL_PATH" = "rain.dat" ] || exit 5
echo "timestamp,flow"
echo "1991-01-01 00:00:00,0.5"
echo "1991-01-01 00:30:00,0.9"
echo "1991-01-01 01:00:00,-0.2"
echo "1991-01-01 02:00:00,0"
`)

	sim := NewCommandSimulator(script, time.Minute, testLogger())
	series, err := sim.Run(context.Background(), testModel)
	require.NoError(t, err)
	assert.InDelta(t, domain.HourSeconds, series.StepSeconds, 0)
	assert.InDeltaSlice(t, []float64{0.5, 0.2, 0}, series.Flows, 0)
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name    string
		command func(t *testing.T) string
		timeout time.Duration
	}{
		{"not configured", func(*testing.T) string { return "" }, 0},
		{"not installed", func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing-sim") }, 0},
		{"non-zero exit", func(t *testing.T) string { return writeScript(t, "echo boom >&2\nexit 1\n") }, 0},
		{"no output", func(t *testing.T) string { return writeScript(t, "exit 0\n") }, 0},
		{"garbage output", func(t *testing.T) string { return writeScript(t, "echo a,b\necho c,d\n") }, 0},
		{"timeout", func(t *testing.T) string { return writeScript(t, "exec sleep 5\n") }, 50 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := NewCommandSimulator(tt.command(t), tt.timeout, testLogger())
			_, err := sim.Run(context.Background(), testModel)
			require.ErrorIs(t, err, domain.ErrUpstreamFailure)
		})
	}
}
