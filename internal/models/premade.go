package models

import "time"

// PreMadeItemGroup is a named pool of prepared connection artifacts.
type PreMadeItemGroup struct {
	ID   uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"column:name;size:200" json:"name"`
}

func (PreMadeItemGroup) TableName() string {
	return "premade_groups"
}

// PreMadeItem statuses.
const (
	PreMadeAvailable = "available"
	PreMadeSold      = "sold"
)

// PreMadeItem is one prepared artifact. Sold items keep their buyer and are
// not returned to the pool when the service is deleted.
type PreMadeItem struct {
	ID        uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	GroupID   uint       `gorm:"column:group_id;index" json:"group_id"`
	Content   string     `gorm:"column:content;type:text" json:"content"`
	Status    string     `gorm:"column:status;size:50;default:available" json:"status"`
	UserID    uint       `gorm:"column:user_id" json:"user_id,omitempty"`
	SoldAt    *time.Time `gorm:"column:sold_at" json:"sold_at,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (PreMadeItem) TableName() string {
	return "premade_items"
}
