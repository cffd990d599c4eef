package ads

import "time"

// AdPlacement describes one rewarded ad slot the mobile client may render.
// Placements are operator-managed rows; the API only reads them.
type AdPlacement struct {
	ID           string    `gorm:"column:id;primaryKey" json:"id"`
	AdFormat     string    `gorm:"column:ad_format;not null" json:"ad_format"`
	AdUnitID     string    `gorm:"column:ad_unit_id;not null" json:"ad_unit_id"`
	PointsReward int       `gorm:"column:points_reward;default:0" json:"points_reward"`
	IsEnabled    bool      `gorm:"column:is_enabled" json:"is_enabled"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
