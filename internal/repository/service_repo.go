package repository

import (
	"gorm.io/gorm"

	"khpanel/internal/models"
)

// ServiceRepository handles service database operations.
type ServiceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// FindAll returns services with pagination, optionally scoped to one user.
func (r *ServiceRepository) FindAll(limit, page int, userID uint) ([]models.Service, int64, error) {
	var services []models.Service
	var total int64

	db := r.db.Model(&models.Service{})
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

	if err := db.Order("id DESC").Limit(limit).Offset(offset).Find(&services).Error; err != nil {
		return nil, 0, err
	}
	return services, total, nil
}

// FindByID returns a service by ID.
func (r *ServiceRepository) FindByID(id uint) (*models.Service, error) {
	var service models.Service
	if err := r.db.Where("id = ?", id).First(&service).Error; err != nil {
		return nil, err
	}
	return &service, nil
}

// FindByUser returns all services for one user.
func (r *ServiceRepository) FindByUser(userID uint) ([]models.Service, error) {
	var services []models.Service
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&services).Error
	return services, err
}

// Count returns the total number of services.
func (r *ServiceRepository) Count() (int64, error) {
	var total int64
	err := r.db.Model(&models.Service{}).Count(&total).Error
	return total, err
}

// Create creates a new service.
func (r *ServiceRepository) Create(service *models.Service) error {
	return r.db.Create(service).Error
}

// Update updates service fields.
func (r *ServiceRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Service{}).Where("id = ?", id).Updates(updates).Error
}

// Delete deletes a service.
func (r *ServiceRepository) Delete(id uint) error {
	return r.db.Where("id = ?", id).Delete(&models.Service{}).Error
}
