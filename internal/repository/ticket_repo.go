package repository

import (
	"gorm.io/gorm"

	"khpanel/internal/models"
)

// TicketRepository handles support tickets.
type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// FindAll returns tickets with pagination, optionally scoped to one user or
// one status.
func (r *TicketRepository) FindAll(limit, page int, userID uint, status string) ([]models.Ticket, int64, error) {
	var tickets []models.Ticket
	var total int64

	db := r.db.Model(&models.Ticket{})
	if userID != 0 {
		db = db.Where("user_id = ?", userID)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	if err := db.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&tickets).Error; err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

// FindByID returns a ticket with its replies.
func (r *TicketRepository) FindByID(id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.Preload("Replies").Where("id = ?", id).First(&ticket).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Create creates a ticket.
func (r *TicketRepository) Create(ticket *models.Ticket) error {
	return r.db.Create(ticket).Error
}

// Update updates ticket fields.
func (r *TicketRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Ticket{}).Where("id = ?", id).Updates(updates).Error
}

// AddReply appends a reply and touches the parent ticket.
func (r *TicketRepository) AddReply(reply *models.TicketReply) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reply).Error; err != nil {
			return err
		}
		return tx.Model(&models.Ticket{}).Where("id = ?", reply.TicketID).
			UpdateColumn("updated_at", gorm.Expr("NOW()")).Error
	})
}
