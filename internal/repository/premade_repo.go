package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"khpanel/internal/models"
)

func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// PreMadeRepository handles pre-made item pools.
type PreMadeRepository struct {
	db *gorm.DB
}

func NewPreMadeRepository(db *gorm.DB) *PreMadeRepository {
	return &PreMadeRepository{db: db}
}

// Groups returns all pools with their remaining stock.
func (r *PreMadeRepository) Groups() ([]models.PreMadeItemGroup, error) {
	var groups []models.PreMadeItemGroup
	err := r.db.Find(&groups).Error
	return groups, err
}

// CreateGroup creates a pool.
func (r *PreMadeRepository) CreateGroup(group *models.PreMadeItemGroup) error {
	return r.db.Create(group).Error
}

// AddItems inserts prepared artifacts into a pool.
func (r *PreMadeRepository) AddItems(groupID uint, contents []string) error {
	items := make([]models.PreMadeItem, 0, len(contents))
	for _, content := range contents {
		items = append(items, models.PreMadeItem{
			GroupID: groupID,
			Content: content,
			Status:  models.PreMadeAvailable,
		})
	}
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

// AvailableCount returns how many unsold items remain in a pool.
func (r *PreMadeRepository) AvailableCount(groupID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.PreMadeItem{}).
		Where("group_id = ? AND status = ?", groupID, models.PreMadeAvailable).
		Count(&count).Error
	return count, err
}

// Allocate reserves one available item for a buyer. It runs in a transaction
// with a row lock so concurrent purchases never receive the same item.
func (r *PreMadeRepository) Allocate(groupID, userID uint) (*models.PreMadeItem, error) {
	var item models.PreMadeItem
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(lockForUpdate()).
			Where("group_id = ? AND status = ?", groupID, models.PreMadeAvailable).
			Order("id ASC").
			First(&item).Error; err != nil {
			return err
		}
		now := time.Now()
		item.Status = models.PreMadeSold
		item.UserID = userID
		item.SoldAt = &now
		return tx.Model(&models.PreMadeItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
			"status":  item.Status,
			"user_id": item.UserID,
			"sold_at": item.SoldAt,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteGroup removes a pool and its unsold items. Sold items are kept for
// record keeping.
func (r *PreMadeRepository) DeleteGroup(groupID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ? AND status = ?", groupID, models.PreMadeAvailable).
			Delete(&models.PreMadeItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", groupID).Delete(&models.PreMadeItemGroup{}).Error
	})
}
