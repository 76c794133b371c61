package models

import "time"

// Server is a connection profile for one vendor panel instance.
type Server struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"column:name;size:200" json:"name"`
	PanelType    string    `gorm:"column:panel_type;size:50" json:"panel_type"`
	Status       string    `gorm:"column:status;size:50;default:offline" json:"status"`
	OnlineUsers  int       `gorm:"column:online_users;default:0" json:"online_users"`
	PanelURL     string    `gorm:"column:panel_url;size:500" json:"panel_url"`
	PanelUser    string    `gorm:"column:panel_user;size:200" json:"panel_user"`
	PanelPass    string    `gorm:"column:panel_pass;size:200" json:"-"`
	PublicDomain string    `gorm:"column:public_domain;size:200" json:"public_domain,omitempty"`
	PublicPort   string    `gorm:"column:public_port;size:20" json:"public_port,omitempty"`
	CheckedAt    time.Time `gorm:"column:checked_at" json:"checked_at"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Server) TableName() string {
	return "servers"
}
