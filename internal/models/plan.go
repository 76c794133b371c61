package models

import "time"

// Provision types.
const (
	ProvisionAuto    = "auto"
	ProvisionPreMade = "pre-made"
)

// Category groups plans for display.
type Category struct {
	ID     uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name   string `gorm:"column:name;size:200" json:"name"`
	Status string `gorm:"column:status;size:50;default:active" json:"status"`
}

func (Category) TableName() string {
	return "categories"
}

// Plan is a sale offering. Auto-provision plans point at a server and an
// inbound on that server's vendor panel; pre-made plans point at an
// inventory group instead.
type Plan struct {
	ID               uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name             string    `gorm:"column:name;size:200" json:"name"`
	CategoryID       uint      `gorm:"column:category_id;index" json:"category_id"`
	Price            int64     `gorm:"column:price;default:0" json:"price"`
	AgentPrice       int64     `gorm:"column:agent_price;default:0" json:"agent_price"`
	DurationDays     int       `gorm:"column:duration_days;default:30" json:"duration_days"`
	PostPurchaseInfo string    `gorm:"column:post_purchase_info;type:text" json:"post_purchase_info"`
	Status           string    `gorm:"column:status;size:50;default:active" json:"status"`
	ProvisionType    string    `gorm:"column:provision_type;size:50;default:auto" json:"provision_type"`
	ServerID         uint      `gorm:"column:server_id;index" json:"server_id,omitempty"`
	Protocol         string    `gorm:"column:protocol;size:50" json:"protocol,omitempty"`
	VolumeGB         int       `gorm:"column:volume_gb;default:0" json:"volume_gb"`
	InboundID        string    `gorm:"column:inbound_id;size:50" json:"inbound_id,omitempty"`
	Remark           string    `gorm:"column:remark;size:200" json:"remark,omitempty"`
	ConnectionDomain string    `gorm:"column:connection_domain;size:200" json:"connection_domain,omitempty"`
	ConnectionPort   string    `gorm:"column:connection_port;size:20" json:"connection_port,omitempty"`
	PreMadeGroupID   uint      `gorm:"column:premade_group_id" json:"premade_group_id,omitempty"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Plan) TableName() string {
	return "plans"
}
