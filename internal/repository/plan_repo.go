package repository

import (
	"gorm.io/gorm"

	"khpanel/internal/models"
)

// PlanRepository handles plan and category database operations.
type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// FindAll returns plans with pagination and search.
func (r *PlanRepository) FindAll(limit, page int, query string) ([]models.Plan, int64, error) {
	var plans []models.Plan
	var total int64

	db := r.db.Model(&models.Plan{})

	if query != "" {
		db = db.Where("name LIKE ?", "%"+query+"%")
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

	if err := db.Limit(limit).Offset(offset).Find(&plans).Error; err != nil {
		return nil, 0, err
	}
	return plans, total, nil
}

// FindByID returns a plan by ID.
func (r *PlanRepository) FindByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.Where("id = ?", id).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// FindActive returns all active plans.
func (r *PlanRepository) FindActive() ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.Where("status = ?", "active").Find(&plans).Error
	return plans, err
}

// Create creates a new plan.
func (r *PlanRepository) Create(plan *models.Plan) error {
	return r.db.Create(plan).Error
}

// Update updates plan fields.
func (r *PlanRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Plan{}).Where("id = ?", id).Updates(updates).Error
}

// Delete deletes a plan.
func (r *PlanRepository) Delete(id uint) error {
	return r.db.Where("id = ?", id).Delete(&models.Plan{}).Error
}

// Categories returns all categories.
func (r *PlanRepository) Categories() ([]models.Category, error) {
	var categories []models.Category
	err := r.db.Find(&categories).Error
	return categories, err
}

// CreateCategory creates a category.
func (r *PlanRepository) CreateCategory(category *models.Category) error {
	return r.db.Create(category).Error
}

// UpdateCategory updates category fields.
func (r *PlanRepository) UpdateCategory(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Category{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteCategory deletes a category.
func (r *PlanRepository) DeleteCategory(id uint) error {
	return r.db.Where("id = ?", id).Delete(&models.Category{}).Error
}
