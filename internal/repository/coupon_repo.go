package repository

import (
	"time"

	"gorm.io/gorm"

	"khpanel/internal/models"
)

// CouponRepository handles discount codes.
type CouponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

// FindAll returns all coupons.
func (r *CouponRepository) FindAll() ([]models.Coupon, error) {
	var coupons []models.Coupon
	err := r.db.Order("id DESC").Find(&coupons).Error
	return coupons, err
}

// FindByCode returns a coupon by its code.
func (r *CouponRepository) FindByCode(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// Create creates a coupon.
func (r *CouponRepository) Create(coupon *models.Coupon) error {
	return r.db.Create(coupon).Error
}

// Update updates coupon fields.
func (r *CouponRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Coupon{}).Where("id = ?", id).Updates(updates).Error
}

// Delete deletes a coupon.
func (r *CouponRepository) Delete(id uint) error {
	return r.db.Where("id = ?", id).Delete(&models.Coupon{}).Error
}

// RecordUsage bumps the used counter and writes a usage row.
func (r *CouponRepository) RecordUsage(couponID, userID, serviceID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Coupon{}).Where("id = ?", couponID).
			UpdateColumn("used_count", gorm.Expr("used_count + 1")).Error; err != nil {
			return err
		}
		usage := models.CouponUsage{
			CouponID:  couponID,
			UserID:    userID,
			ServiceID: serviceID,
			UsedAt:    time.Now(),
		}
		return tx.Create(&usage).Error
	})
}

// UsedByUser reports whether a user already used this coupon.
func (r *CouponRepository) UsedByUser(couponID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.CouponUsage{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error
	return count > 0, err
}
