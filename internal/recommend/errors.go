package recommend

import (
	"errors"
	"fmt"

	"github.com/hyperjump/osusume/internal/metrics"
)

// ErrDataSourceUnavailable wraps every failed read from the catalog. An empty
// recommendation is never returned in its place.
var ErrDataSourceUnavailable = errors.New("data source unavailable")

func dataSourceError(op string, err error) error {
	metrics.DataSourceErrors.WithLabelValues(op).Inc()
	return fmt.Errorf("%w: %s: %w", ErrDataSourceUnavailable, op, err)
}
