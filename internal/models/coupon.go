package models

import "time"

// Coupon types.
const (
	CouponPercentage = "percentage"
	CouponAmount     = "amount"
)

// Coupon is a discount code applied at purchase time.
type Coupon struct {
	ID         uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Code       string     `gorm:"column:code;size:100;uniqueIndex" json:"code"`
	Type       string     `gorm:"column:type;size:50" json:"type"`
	Value      int64      `gorm:"column:value;default:0" json:"value"`
	UsageLimit int        `gorm:"column:usage_limit;default:0" json:"usage_limit"`
	UsedCount  int        `gorm:"column:used_count;default:0" json:"used_count"`
	ExpiryDate *time.Time `gorm:"column:expiry_date" json:"expiry_date,omitempty"`
	Status     string     `gorm:"column:status;size:50;default:active" json:"status"`
	CreatedAt  time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (Coupon) TableName() string {
	return "coupons"
}

// Usable reports whether the coupon can still be applied.
func (c *Coupon) Usable(now time.Time) bool {
	if c.Status != "active" {
		return false
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return false
	}
	if c.ExpiryDate != nil && c.ExpiryDate.Before(now) {
		return false
	}
	return true
}

// Apply returns the price after discount, never below zero.
func (c *Coupon) Apply(price int64) int64 {
	var discounted int64
	switch c.Type {
	case CouponPercentage:
		discounted = price - price*c.Value/100
	case CouponAmount:
		discounted = price - c.Value
	default:
		return price
	}
	if discounted < 0 {
		return 0
	}
	return discounted
}

// CouponUsage records one application of a coupon to a service.
type CouponUsage struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CouponID  uint      `gorm:"column:coupon_id;index" json:"coupon_id"`
	UserID    uint      `gorm:"column:user_id;index" json:"user_id"`
	ServiceID uint      `gorm:"column:service_id" json:"service_id"`
	UsedAt    time.Time `gorm:"column:used_at" json:"used_at"`
}

func (CouponUsage) TableName() string {
	return "coupon_usages"
}
