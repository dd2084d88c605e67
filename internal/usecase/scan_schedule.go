package usecase

import (
	"context"
	"errors"

	"github.com/user/a11y-crawler/internal/entity"
	"github.com/user/a11y-crawler/internal/repository"
	"github.com/user/a11y-crawler/pkg/metrics"
	"github.com/user/a11y-crawler/pkg/ratelimit"
)

// startError marks a failure of the onStart hook, as opposed to a scan failure.
type startError struct{ err error }

func (e *startError) Error() string { return e.err.Error() }
func (e *startError) Unwrap() error { return e.err }

// scheduleScan runs one page scan through the shared limiter. onStart, if
// set, runs once the limiter has admitted the scan; its error aborts the scan
// and is returned wrapped in *startError.
func scheduleScan(ctx context.Context, limiter *ratelimit.Limiter, scanner repository.PageScanner, url string, onStart func(context.Context) error) (*entity.ScanResult, error) {
	return ratelimit.Schedule(ctx, limiter, func(ctx context.Context) (*entity.ScanResult, error) {
		if onStart != nil {
			if err := onStart(ctx); err != nil {
				return nil, &startError{err: err}
			}
		}
		metrics.ScansInFlight.Inc()
		defer metrics.ScansInFlight.Dec()
		return scanner.Scan(ctx, url)
	})
}

func isStartError(err error) bool {
	var se *startError
	return errors.As(err, &se)
}
