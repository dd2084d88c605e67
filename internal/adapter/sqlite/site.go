package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/user/a11y-crawler/internal/entity"
	"github.com/user/a11y-crawler/internal/repository"
)

// SiteRepo implements repository.SiteRepository.
type SiteRepo struct {
	db *sql.DB
}

func NewSiteRepo(db *sql.DB) *SiteRepo {
	return &SiteRepo{db: db}
}

func (r *SiteRepo) Create(ctx context.Context, rootURL string) (*entity.Site, error) {
	ts := now()
	res, err := r.db.ExecContext(ctx, `INSERT INTO sites (root_url, created_at) VALUES (?, ?)`, rootURL, ts)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &entity.Site{ID: id, RootURL: rootURL, CreatedAt: fromMillis(ts)}, nil
}

func (r *SiteRepo) FindByID(ctx context.Context, id int64) (*entity.Site, error) {
	var s entity.Site
	var created int64
	err := r.db.QueryRowContext(ctx, `SELECT id, root_url, created_at FROM sites WHERE id = ?`, id).
		Scan(&s.ID, &s.RootURL, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.CreatedAt = fromMillis(created)
	return &s, nil
}
