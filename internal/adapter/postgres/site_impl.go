package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/a11y-crawler/internal/entity"
	"github.com/user/a11y-crawler/internal/repository"
)

// SiteRepoImpl implements repository.SiteRepository using PostgreSQL.
type SiteRepoImpl struct {
	db *pgxpool.Pool
}

// NewSiteRepo creates a new instance of SiteRepoImpl.
func NewSiteRepo(db *pgxpool.Pool) *SiteRepoImpl {
	return &SiteRepoImpl{db: db}
}

func (r *SiteRepoImpl) Create(ctx context.Context, rootURL string) (*entity.Site, error) {
	s := entity.Site{RootURL: rootURL}
	err := r.db.QueryRow(ctx,
		`INSERT INTO sites (root_url) VALUES ($1) RETURNING id, created_at`,
		rootURL,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SiteRepoImpl) FindByID(ctx context.Context, id int64) (*entity.Site, error) {
	var s entity.Site
	err := r.db.QueryRow(ctx,
		`SELECT id, root_url, created_at FROM sites WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.RootURL, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
