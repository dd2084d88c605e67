package repository

import (
	"context"

	"github.com/user/a11y-crawler/internal/entity"
)

// SiteRepository reads and registers monitored sites.
type SiteRepository interface {
	Create(ctx context.Context, rootURL string) (*entity.Site, error)
	FindByID(ctx context.Context, id int64) (*entity.Site, error)
}
