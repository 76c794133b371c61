package repository

import (
	"time"

	"gorm.io/gorm"

	"khpanel/internal/models"
)

// AccountRepository handles account database operations.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindAll returns accounts with pagination and search.
func (r *AccountRepository) FindAll(limit, page int, query string) ([]models.Account, int64, error) {
	var accounts []models.Account
	var total int64

	db := r.db.Model(&models.Account{})

	if query != "" {
		search := "%" + query + "%"
		db = db.Where("name LIKE ? OR email LIKE ? OR code LIKE ?", search, search, search)
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

	if err := db.Limit(limit).Offset(offset).Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// FindByID returns an account by ID.
func (r *AccountRepository) FindByID(id uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByEmail returns an account by email.
func (r *AccountRepository) FindByEmail(email string) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where("email = ?", email).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByTelegramID returns an account linked to a Telegram user.
func (r *AccountRepository) FindByTelegramID(tgID int64) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where("telegram_id = ?", tgID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// Create creates a new account.
func (r *AccountRepository) Create(account *models.Account) error {
	return r.db.Create(account).Error
}

// Update updates account fields.
func (r *AccountRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Account{}).Where("id = ?", id).Updates(updates).Error
}

// Delete deletes an account.
func (r *AccountRepository) Delete(id uint) error {
	return r.db.Where("id = ?", id).Delete(&models.Account{}).Error
}

// AdjustWallet atomically applies a delta to an account wallet.
func (r *AccountRepository) AdjustWallet(id uint, delta int64) error {
	return r.db.Model(&models.Account{}).Where("id = ?", id).
		UpdateColumn("wallet_balance", gorm.Expr("wallet_balance + ?", delta)).Error
}

// TouchLastActive stamps the account's last activity time.
func (r *AccountRepository) TouchLastActive(id uint) error {
	now := time.Now()
	return r.db.Model(&models.Account{}).Where("id = ?", id).
		UpdateColumn("last_active", now).Error
}
