package bootstrap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"gorm.io/gorm"

	"khpanel/internal/models"
	"khpanel/internal/pkg/utils"
)

// MigrateAndSeed ensures required tables exist and inserts baseline rows.
func MigrateAndSeed(db *gorm.DB, adminEmail, adminPassword string) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	if err := ensureSuperadmin(db, adminEmail, adminPassword); err != nil {
		return fmt.Errorf("seed superadmin failed: %w", err)
	}
	return nil
}

func allModels() []interface{} {
	return []interface{}{
		&models.Account{},
		&models.Server{},
		&models.Category{},
		&models.Plan{},
		&models.Service{},
		&models.PreMadeItemGroup{},
		&models.PreMadeItem{},
		&models.Coupon{},
		&models.CouponUsage{},
		&models.Ticket{},
		&models.TicketReply{},
		&models.Invoice{},
		&models.TopUpRequest{},
		&models.AuditLog{},
	}
}

func ensureSuperadmin(db *gorm.DB, email, password string) error {
	var count int64
	if err := db.Model(&models.Account{}).Where("role = ?", models.RoleSuperadmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		password = utils.RandomCode(12)
		fmt.Printf("generated superadmin password: %s\n", password)
	}

	row := models.Account{
		Name:     "Superadmin",
		Email:    email,
		Password: HashPassword(password),
		Role:     models.RoleSuperadmin,
		Status:   "active",
	}
	return db.Create(&row).Error
}

// HashPassword returns the hex SHA-256 of a password.
func HashPassword(password string) string {
	h := sha256.Sum256([]byte(password))
	return hex.EncodeToString(h[:])
}
