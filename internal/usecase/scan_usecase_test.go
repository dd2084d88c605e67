package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/a11y-crawler/internal/entity"
	"github.com/user/a11y-crawler/internal/repository"
	"go.uber.org/zap"
)

func (e *testEnv) scanService() ScanService {
	return NewScanService(e.sites, e.scans, e.scanner, e.limiter, zap.NewNop())
}

func TestScanURLSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	site, err := env.manager().CreateSite(ctx, root)
	require.NoError(t, err)

	var statusDuringScan entity.ScanStatus
	env.scanner.fn = func(ctx context.Context, url string) (*entity.ScanResult, error) {
		scans, err := env.scans.FindByID(ctx, 1)
		require.NoError(t, err)
		statusDuringScan = scans.Status
		return entity.NewScanResult("Pricing", []entity.Violation{{ID: "color-contrast", Impact: entity.ImpactSerious}}), nil
	}

	scan, err := env.scanService().ScanURL(ctx, site.ID, "https://EXAMPLE.com/pricing#plans")
	require.NoError(t, err)

	assert.Equal(t, entity.ScanStatusRunning, statusDuringScan)
	assert.Equal(t, entity.ScanStatusDone, scan.Status)
	assert.Equal(t, "https://example.com/pricing", scan.URL)
	assert.Nil(t, scan.PageID)
	assert.Equal(t, 95, scan.Score)

	stored, err := env.scanService().GetScan(ctx, scan.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ScanStatusDone, stored.Status)
	var violations []entity.Violation
	require.NoError(t, json.Unmarshal(stored.Raw, &violations))
	assert.Equal(t, "color-contrast", violations[0].ID)

	// Ad-hoc scans do not create pages.
	_, err = env.pages.FindByURL(ctx, site.ID, scan.URL)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestScanURLFailureIsRecorded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	site, err := env.manager().CreateSite(ctx, root)
	require.NoError(t, err)
	env.scanner.fn = func(context.Context, string) (*entity.ScanResult, error) {
		return nil, repository.ErrNavigationFailed
	}

	scan, err := env.scanService().ScanURL(ctx, site.ID, root)
	require.NoError(t, err)
	assert.Equal(t, entity.ScanStatusFailed, scan.Status)
	assert.Equal(t, "navigation failed", scan.FailureReason)

	stored, err := env.scans.FindByID(ctx, scan.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ScanStatusFailed, stored.Status)
}

func TestScanURLValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.scanService().ScanURL(ctx, 1, "not a url")
	assert.ErrorIs(t, err, ErrInvalidURL)
	_, err = env.scanService().ScanURL(ctx, 42, root)
	assert.ErrorIs(t, err, ErrSiteNotFound)
	_, err = env.scanService().GetScan(ctx, 42)
	assert.ErrorIs(t, err, ErrScanNotFound)
	assert.Empty(t, env.scanner.Calls())
}

// runningUpdateFails rejects the queued -> running transition only.
type runningUpdateFails struct {
	repository.ScanRepository
}

func (r runningUpdateFails) Update(ctx context.Context, scan *entity.Scan) error {
	if scan.Status == entity.ScanStatusRunning {
		return errors.New("write conflict")
	}
	return r.ScanRepository.Update(ctx, scan)
}

func TestScanURLStartFailureMarksScanFailed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	site, err := env.manager().CreateSite(ctx, root)
	require.NoError(t, err)

	svc := NewScanService(env.sites, runningUpdateFails{env.scans}, env.scanner, env.limiter, zap.NewNop())
	scan, err := svc.ScanURL(ctx, site.ID, root+"pricing")
	assert.ErrorContains(t, err, "write conflict")
	assert.Nil(t, scan)
	assert.Empty(t, env.scanner.Calls())

	stored, err := env.scans.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, entity.ScanStatusFailed, stored.Status)
	assert.Contains(t, stored.FailureReason, "write conflict")
}
