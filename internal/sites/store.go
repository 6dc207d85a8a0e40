package sites

import (
	"context"

	id "registrar/pkg/domain"
)

// Store persists the site directory.
type Store interface {
	Create(ctx context.Context, s *Site) error
	FindByID(ctx context.Context, siteID id.SiteID) (*Site, error)
	FindByCode(ctx context.Context, code string) (*Site, error)
	List(ctx context.Context) ([]*Site, error)
}
