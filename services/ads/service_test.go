package ads

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"earnplay-backend/services/testutil"
)

func TestListReturnsOnlyEnabledPlacements(t *testing.T) {
	db := testutil.NewTestDB(t, &AdPlacement{})
	svc := NewService(ServiceParams{DB: db})

	now := time.Now()
	require.NoError(t, db.Create(&AdPlacement{
		ID: "placement-1", AdFormat: "rewarded", AdUnitID: "unit-1", PointsReward: 5,
		IsEnabled: true, CreatedAt: now.Add(-time.Hour),
	}).Error)
	require.NoError(t, db.Create(&AdPlacement{
		ID: "placement-2", AdFormat: "rewarded", AdUnitID: "unit-2", PointsReward: 5,
		IsEnabled: true, CreatedAt: now,
	}).Error)
	require.NoError(t, db.Create(&AdPlacement{
		ID: "placement-3", AdFormat: "interstitial", AdUnitID: "unit-3", PointsReward: 1,
		IsEnabled: false, CreatedAt: now,
	}).Error)

	placements, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, placements, 2)
	require.Equal(t, "placement-2", placements[0].ID)
	require.Equal(t, "placement-1", placements[1].ID)
}
