package ads

import (
	"context"

	"earnplay-backend/pkg/db/option"
	"earnplay-backend/pkg/errutil"
	"earnplay-backend/pkg/repository"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Service struct {
	placements repository.Repository[AdPlacement]
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{
		placements: repository.ProvideStore[AdPlacement](p.DB),
	}
}

// List returns the placements the client should render. Disabled placements
// stay in the table but never leave the API.
func (s *Service) List(ctx context.Context) ([]*AdPlacement, error) {
	placements, err := s.placements.Find(ctx, &AdPlacement{IsEnabled: true},
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
	)
	if err != nil {
		return nil, errutil.Internal("failed to query ad placements", err)
	}
	return placements, nil
}
