package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/user/a11y-crawler/internal/entity"
	"github.com/user/a11y-crawler/internal/repository"
)

// ScanRepo implements repository.ScanRepository. The violation payload is
// kept as JSON text.
type ScanRepo struct {
	db *sql.DB
}

func NewScanRepo(db *sql.DB) *ScanRepo {
	return &ScanRepo{db: db}
}

func (r *ScanRepo) Create(ctx context.Context, s *entity.Scan) error {
	ts := now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO scans (site_id, page_id, url, status, score, issues,
			impact_critical, impact_serious, impact_moderate, impact_minor, raw, failure_reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.SiteID, toNullID(s.PageID), s.URL, string(s.Status), s.Score, s.Issues,
		s.ImpactCritical, s.ImpactSerious, s.ImpactModerate, s.ImpactMinor,
		rawOrNull(s.Raw), s.FailureReason, ts,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	s.CreatedAt = fromMillis(ts)
	return nil
}

func (r *ScanRepo) Update(ctx context.Context, s *entity.Scan) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE scans SET
			status = ?, score = ?, issues = ?,
			impact_critical = ?, impact_serious = ?, impact_moderate = ?, impact_minor = ?,
			raw = ?, failure_reason = ?
		 WHERE id = ?`,
		string(s.Status), s.Score, s.Issues,
		s.ImpactCritical, s.ImpactSerious, s.ImpactModerate, s.ImpactMinor,
		rawOrNull(s.Raw), s.FailureReason, s.ID,
	)
	return requireOne(res, err)
}

func (r *ScanRepo) FindByID(ctx context.Context, id int64) (*entity.Scan, error) {
	var s entity.Scan
	var status string
	var pageID sql.NullInt64
	var raw sql.NullString
	var created int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, site_id, page_id, url, status, score, issues,
			impact_critical, impact_serious, impact_moderate, impact_minor, raw, failure_reason, created_at
		 FROM scans WHERE id = ?`,
		id,
	).Scan(&s.ID, &s.SiteID, &pageID, &s.URL, &status, &s.Score, &s.Issues,
		&s.ImpactCritical, &s.ImpactSerious, &s.ImpactModerate, &s.ImpactMinor,
		&raw, &s.FailureReason, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Status = entity.ScanStatus(status)
	s.PageID = fromNullID(pageID)
	if raw.Valid {
		s.Raw = []byte(raw.String)
	}
	s.CreatedAt = fromMillis(created)
	return &s, nil
}

func rawOrNull(raw []byte) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}
