package observability

import (
	"log/slog"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT values and
// tags every record with the service name.
func NewLogger(level, format string) *slog.Logger {
	return sharedobs.NewLogger(level, format).With("service", "wqflow")
}
