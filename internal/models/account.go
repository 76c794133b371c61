package models

import "time"

// Account roles.
const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
	RoleAgent      = "agent"
	RoleUser       = "user"
	RoleSupporter  = "supporter"
)

// Account is a panel login: admins, agents, supporters and end users share
// one table and are distinguished by role.
type Account struct {
	ID                   uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name                 string     `gorm:"column:name;size:200" json:"name"`
	Email                string     `gorm:"column:email;size:200;uniqueIndex" json:"email"`
	Password             string     `gorm:"column:password;size:200" json:"-"`
	Role                 string     `gorm:"column:role;size:50;default:user" json:"role"`
	Status               string     `gorm:"column:status;size:50;default:active" json:"status"`
	Code                 string     `gorm:"column:code;size:50" json:"code,omitempty"`
	TelegramID           int64      `gorm:"column:telegram_id;index" json:"telegram_id,omitempty"`
	WalletBalance        int64      `gorm:"column:wallet_balance;default:0" json:"wallet_balance"`
	SalesCount           int        `gorm:"column:sales_count;default:0" json:"sales_count"`
	AllowNegativeBalance bool       `gorm:"column:allow_negative_balance;default:false" json:"allow_negative_balance"`
	NegativeBalanceLimit int64      `gorm:"column:negative_balance_limit;default:0" json:"negative_balance_limit"`
	LastActive           *time.Time `gorm:"column:last_active" json:"last_active,omitempty"`
	CreatedAt            time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// CanSpend reports whether the account wallet covers the amount, taking the
// agent negative-balance allowance into account.
func (a *Account) CanSpend(amount int64) bool {
	floor := int64(0)
	if a.AllowNegativeBalance {
		floor = -a.NegativeBalanceLimit
	}
	return a.WalletBalance-amount >= floor
}
