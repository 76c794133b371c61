package models

import "time"

// Service is one sold instance of a plan. Auto-provisioned services carry
// serverId+clientEmail, pre-made ones carry preMadeItemId; never both.
type Service struct {
	ID                uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID            uint      `gorm:"column:user_id;index" json:"user_id"`
	PlanID            uint      `gorm:"column:plan_id;index" json:"plan_id"`
	CategoryID        uint      `gorm:"column:category_id" json:"category_id"`
	ExpiresAt         time.Time `gorm:"column:expires_at" json:"expires_at"`
	AppliedCouponCode string    `gorm:"column:applied_coupon_code;size:100" json:"applied_coupon_code,omitempty"`
	FinalPrice        int64     `gorm:"column:final_price;default:0" json:"final_price"`
	ServerID          uint      `gorm:"column:server_id;index" json:"server_id,omitempty"`
	ClientEmail       string    `gorm:"column:client_email;size:200;index" json:"client_email,omitempty"`
	ClientUUID        string    `gorm:"column:client_uuid;size:100" json:"client_uuid,omitempty"`
	ConfigLink        string    `gorm:"column:config_link;type:text" json:"config_link,omitempty"`
	PreMadeItemID     uint      `gorm:"column:premade_item_id" json:"premade_item_id,omitempty"`
	TotalTraffic      int64     `gorm:"column:total_traffic;default:0" json:"total_traffic"`
	UsedTraffic       int64     `gorm:"column:used_traffic;default:0" json:"used_traffic"`
	CreatedAt         time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Service) TableName() string {
	return "services"
}

// AutoProvisioned reports whether the service has a vendor-side client
// attached (and therefore needs vendor cleanup on deletion).
func (s *Service) AutoProvisioned() bool {
	return s.ServerID != 0 && s.ClientEmail != ""
}
