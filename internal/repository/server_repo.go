package repository

import (
	"time"

	"gorm.io/gorm"

	"khpanel/internal/models"
)

// ServerRepository handles server database operations.
type ServerRepository struct {
	db *gorm.DB
}

func NewServerRepository(db *gorm.DB) *ServerRepository {
	return &ServerRepository{db: db}
}

// FindAll returns servers with pagination and search.
func (r *ServerRepository) FindAll(limit, page int, query string) ([]models.Server, int64, error) {
	var servers []models.Server
	var total int64

	db := r.db.Model(&models.Server{})

	if query != "" {
		search := "%" + query + "%"
		db = db.Where("name LIKE ? OR panel_url LIKE ?", search, search)
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

	if err := db.Limit(limit).Offset(offset).Find(&servers).Error; err != nil {
		return nil, 0, err
	}
	return servers, total, nil
}

// FindByID returns a server by ID.
func (r *ServerRepository) FindByID(id uint) (*models.Server, error) {
	var server models.Server
	if err := r.db.Where("id = ?", id).First(&server).Error; err != nil {
		return nil, err
	}
	return &server, nil
}

// All returns every configured server.
func (r *ServerRepository) All() ([]models.Server, error) {
	var servers []models.Server
	err := r.db.Find(&servers).Error
	return servers, err
}

// Create creates a new server.
func (r *ServerRepository) Create(server *models.Server) error {
	return r.db.Create(server).Error
}

// Update updates server fields.
func (r *ServerRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Server{}).Where("id = ?", id).Updates(updates).Error
}

// Delete deletes a server.
func (r *ServerRepository) Delete(id uint) error {
	return r.db.Where("id = ?", id).Delete(&models.Server{}).Error
}

// SetStatus records the outcome of a connection test.
func (r *ServerRepository) SetStatus(id uint, status string, onlineUsers int) error {
	return r.db.Model(&models.Server{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       status,
		"online_users": onlineUsers,
		"checked_at":   time.Now(),
	}).Error
}
