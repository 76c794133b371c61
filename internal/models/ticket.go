package models

import "time"

// Ticket statuses, priorities and departments.
const (
	TicketOpen       = "OPEN"
	TicketInProgress = "IN_PROGRESS"
	TicketClosed     = "CLOSED"

	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"

	DeptTechnical = "TECHNICAL"
	DeptFinancial = "FINANCIAL"
	DeptSales     = "SALES"
	DeptGeneral   = "GENERAL"
)

// Ticket is a support thread opened by a user.
type Ticket struct {
	ID               uint          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Subject          string        `gorm:"column:subject;size:500" json:"subject"`
	Department       string        `gorm:"column:department;size:50;default:GENERAL" json:"department"`
	Priority         string        `gorm:"column:priority;size:50;default:MEDIUM" json:"priority"`
	Status           string        `gorm:"column:status;size:50;default:OPEN" json:"status"`
	UserID           uint          `gorm:"column:user_id;index" json:"user_id"`
	RelatedServiceID uint          `gorm:"column:related_service_id" json:"related_service_id,omitempty"`
	Replies          []TicketReply `gorm:"foreignKey:TicketID" json:"replies,omitempty"`
	CreatedAt        time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"column:updated_at" json:"updated_at"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// TicketReply is one message in a ticket thread.
type TicketReply struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TicketID  uint      `gorm:"column:ticket_id;index" json:"ticket_id"`
	AuthorID  uint      `gorm:"column:author_id" json:"author_id"`
	Message   string    `gorm:"column:message;type:text" json:"message"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (TicketReply) TableName() string {
	return "ticket_replies"
}
