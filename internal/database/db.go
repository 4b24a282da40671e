package database

import (
	"errors"
	"fmt"
	"log"
	"time"

	"crop-catch/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	// DemoData adds a sample customer and catalog (development only).
	DemoData bool
}

// Open connects with retries, migrates the schema and seeds the admin account.
func Open(dsn string, seed SeedOptions) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	const maxAttempts = 10
	for i := 1; i <= maxAttempts; i++ {
		log.Printf("trying to connect to DB (attempt %d/%d)...", i, maxAttempts)

		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
		if err == nil {
			log.Println("connected to DB successfully")
			break
		}

		log.Printf("failed to connect to DB: %v", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect db after %d attempts: %w", maxAttempts, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	createDefaultAdmin(db, seed.AdminEmail, seed.AdminPassword)
	if seed.DemoData {
		seedDemoCustomer(db)
		seedDemoProducts(db)
	}
	return db, nil
}

// Migrate creates or updates every table. Parents precede children so the
// RESTRICT foreign keys on rfq_items and order_items can be created.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Account{},
		&models.Profile{},
		&models.Product{},
		&models.RFQ{},
		&models.RFQItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// the admin account only ever comes from config, never from sign-up
func createDefaultAdmin(db *gorm.DB, email, password string) {
	var count int64
	if err := db.Model(&models.Profile{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		log.Printf("failed to check admin user: %v", err)
		return
	}
	if count > 0 {
		return
	}

	account, err := ensureAccount(db, email, password, "Crop Catch Admin")
	if err != nil {
		log.Printf("failed to create default admin: %v", err)
		return
	}

	profile := models.Profile{
		ID:       account.ID,
		FullName: account.FullName,
		Role:     models.RoleAdmin,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&profile).Error
	if err != nil {
		log.Printf("failed to create default admin profile: %v", err)
		return
	}

	log.Printf("created default admin user: %s", email)
}

func seedDemoCustomer(db *gorm.DB) {
	account, err := ensureAccount(db, "buyer@cropcatch.local", "Buyer123!", "Demo Buyer")
	if err != nil {
		log.Printf("failed to create demo customer: %v", err)
		return
	}
	profile := models.Profile{ID: account.ID, FullName: account.FullName, Role: models.RoleUser}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&profile).Error; err != nil {
		log.Printf("failed to create demo customer profile: %v", err)
	}
}

func ensureAccount(db *gorm.DB, email, password, fullName string) (models.Account, error) {
	var existing models.Account
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Account{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}
	account := models.Account{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
	}
	if err := db.Create(&account).Error; err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func seedDemoProducts(db *gorm.DB) {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		log.Printf("failed to count products: %v", err)
		return
	}
	if count > 0 {
		return
	}

	catalog := []models.Product{
		{Name: "Organic Avocados", Category: "Fresh", CountryOfOrigin: "Spain", Price: decimal.RequireFromString("2.50"), Unit: "kg", Stock: 500, Availability: true, Description: "Premium quality organic avocados, perfect for healthy meals"},
		{Name: "Fresh Strawberries", Category: "Fresh", CountryOfOrigin: "Netherlands", Price: decimal.RequireFromString("4.20"), Unit: "kg", Stock: 300, Availability: true, Description: "Sweet and juicy strawberries, freshly harvested"},
		{Name: "Frozen Berries Mix", Category: "Frozen", CountryOfOrigin: "Germany", Price: decimal.RequireFromString("3.80"), Unit: "kg", Stock: 40, Availability: true, Description: "Mix of frozen blueberries, raspberries, and blackberries"},
		{Name: "Organic Carrots", Category: "Fresh", CountryOfOrigin: "France", Price: decimal.RequireFromString("1.80"), Unit: "kg", Stock: 800, Availability: true, Description: "Fresh organic carrots, perfect for cooking and snacking"},
		{Name: "Frozen Spinach", Category: "Frozen", CountryOfOrigin: "Italy", Price: decimal.RequireFromString("2.90"), Unit: "kg", Stock: 250, Availability: true, Description: "Premium frozen spinach, rich in nutrients"},
		{Name: "Bell Peppers", Category: "Fresh", CountryOfOrigin: "Netherlands", Price: decimal.RequireFromString("3.20"), Unit: "kg", Stock: 350, Availability: true, Description: "Colorful mix of fresh bell peppers"},
	}
	if err := db.Create(&catalog).Error; err != nil {
		log.Printf("failed to seed products: %v", err)
		return
	}
	log.Printf("seeded %d demo products", len(catalog))
}
