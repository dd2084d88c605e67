package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/a11y-crawler/internal/entity"
	"github.com/user/a11y-crawler/internal/repository"
)

// ScanRepoImpl implements repository.ScanRepository. The violation payload is
// stored as JSONB.
type ScanRepoImpl struct {
	db *pgxpool.Pool
}

// NewScanRepo creates a new instance of ScanRepoImpl.
func NewScanRepo(db *pgxpool.Pool) *ScanRepoImpl {
	return &ScanRepoImpl{db: db}
}

func (r *ScanRepoImpl) Create(ctx context.Context, s *entity.Scan) error {
	query := `
		INSERT INTO scans (site_id, page_id, url, status, score, issues,
			impact_critical, impact_serious, impact_moderate, impact_minor, raw, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at;
	`
	return r.db.QueryRow(ctx, query,
		s.SiteID,
		s.PageID,
		s.URL,
		string(s.Status),
		s.Score,
		s.Issues,
		s.ImpactCritical,
		s.ImpactSerious,
		s.ImpactModerate,
		s.ImpactMinor,
		rawOrNil(s.Raw),
		s.FailureReason,
	).Scan(&s.ID, &s.CreatedAt)
}

func (r *ScanRepoImpl) Update(ctx context.Context, s *entity.Scan) error {
	query := `
		UPDATE scans SET
			status = $2, score = $3, issues = $4,
			impact_critical = $5, impact_serious = $6, impact_moderate = $7, impact_minor = $8,
			raw = $9, failure_reason = $10
		WHERE id = $1;
	`
	tag, err := r.db.Exec(ctx, query,
		s.ID,
		string(s.Status),
		s.Score,
		s.Issues,
		s.ImpactCritical,
		s.ImpactSerious,
		s.ImpactModerate,
		s.ImpactMinor,
		rawOrNil(s.Raw),
		s.FailureReason,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ScanRepoImpl) FindByID(ctx context.Context, id int64) (*entity.Scan, error) {
	query := `
		SELECT id, site_id, page_id, url, status, score, issues,
			impact_critical, impact_serious, impact_moderate, impact_minor, raw, failure_reason, created_at
		FROM scans
		WHERE id = $1;
	`
	var s entity.Scan
	var status string
	var raw []byte
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.SiteID,
		&s.PageID,
		&s.URL,
		&status,
		&s.Score,
		&s.Issues,
		&s.ImpactCritical,
		&s.ImpactSerious,
		&s.ImpactModerate,
		&s.ImpactMinor,
		&raw,
		&s.FailureReason,
		&s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Status = entity.ScanStatus(status)
	s.Raw = raw
	return &s, nil
}

// rawOrNil keeps an empty payload as SQL NULL rather than invalid JSON.
func rawOrNil(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
