package models

import "time"

// Invoice statuses.
const (
	InvoicePaid      = "paid"
	InvoicePending   = "pending"
	InvoiceCancelled = "cancelled"
)

// Invoice records one wallet debit for a sold or renewed service.
type Invoice struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ServiceID uint      `gorm:"column:service_id;index" json:"service_id"`
	UserID    uint      `gorm:"column:user_id;index" json:"user_id"`
	Amount    int64     `gorm:"column:amount;default:0" json:"amount"`
	Status    string    `gorm:"column:status;size:50;default:paid" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// TopUpRequest statuses.
const (
	TopUpPending  = "pending"
	TopUpApproved = "approved"
	TopUpRejected = "rejected"
)

// TopUpRequest is a wallet funding request: either a manual card receipt
// awaiting admin approval, or a gateway payment awaiting callback.
type TopUpRequest struct {
	ID             uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID         uint      `gorm:"column:user_id;index" json:"user_id"`
	Amount         int64     `gorm:"column:amount;default:0" json:"amount"`
	ReceiptDetails string    `gorm:"column:receipt_details;type:text" json:"receipt_details,omitempty"`
	Gateway        string    `gorm:"column:gateway;size:50" json:"gateway,omitempty"`
	OrderID        string    `gorm:"column:order_id;size:100;index" json:"order_id,omitempty"`
	Authority      string    `gorm:"column:authority;size:200" json:"authority,omitempty"`
	RefID          string    `gorm:"column:ref_id;size:200" json:"ref_id,omitempty"`
	Status         string    `gorm:"column:status;size:50;default:pending" json:"status"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (TopUpRequest) TableName() string {
	return "topup_requests"
}
