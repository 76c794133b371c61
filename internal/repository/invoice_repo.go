package repository

import (
	"time"

	"gorm.io/gorm"

	"khpanel/internal/models"
)

// InvoiceRepository handles invoices and wallet top-up requests.
type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// FindAll returns invoices with pagination, optionally scoped to one user.
func (r *InvoiceRepository) FindAll(limit, page int, userID uint) ([]models.Invoice, int64, error) {
	var invoices []models.Invoice
	var total int64

	db := r.db.Model(&models.Invoice{})
	if userID != 0 {
		db = db.Where("user_id = ?", userID)
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

	if err := db.Order("id DESC").Limit(limit).Offset(offset).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// Create creates an invoice.
func (r *InvoiceRepository) Create(invoice *models.Invoice) error {
	return r.db.Create(invoice).Error
}

// CreateTopUp creates a top-up request.
func (r *InvoiceRepository) CreateTopUp(req *models.TopUpRequest) error {
	return r.db.Create(req).Error
}

// FindTopUpByID returns a top-up request by ID.
func (r *InvoiceRepository) FindTopUpByID(id uint) (*models.TopUpRequest, error) {
	var req models.TopUpRequest
	if err := r.db.Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindTopUpByOrderID returns a top-up request by its gateway order ID.
func (r *InvoiceRepository) FindTopUpByOrderID(orderID string) (*models.TopUpRequest, error) {
	var req models.TopUpRequest
	if err := r.db.Where("order_id = ?", orderID).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// PendingTopUps returns top-up requests awaiting approval.
func (r *InvoiceRepository) PendingTopUps() ([]models.TopUpRequest, error) {
	var reqs []models.TopUpRequest
	err := r.db.Where("status = ?", models.TopUpPending).Order("id ASC").Find(&reqs).Error
	return reqs, err
}

// UpdateTopUp updates top-up request fields.
func (r *InvoiceRepository) UpdateTopUp(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.TopUpRequest{}).Where("id = ?", id).Updates(updates).Error
}

// ExpireStaleTopUps rejects gateway requests that never received a callback.
func (r *InvoiceRepository) ExpireStaleTopUps(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := r.db.Model(&models.TopUpRequest{}).
		Where("status = ? AND gateway <> '' AND created_at < ?", models.TopUpPending, cutoff).
		Update("status", models.TopUpRejected)
	return res.RowsAffected, res.Error
}
