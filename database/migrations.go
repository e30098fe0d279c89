package database

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"inkwell/models"
)

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
	)

	if err != nil {
		log.Printf("Error running migrations: %v", err)
		return err
	}

	log.Println("Migrations completed successfully")
	return seedAdminUser(db)
}

// seedAdminUser creates the initial author account from ADMIN_EMAIL and
// ADMIN_PASSWORD when no user with that email exists yet.
func seedAdminUser(db *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")

	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin user seed")
		return nil
	}

	var count int64
	db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		return err
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := db.Create(&user).Error; err != nil {
		log.Printf("Error seeding admin user: %v", err)
		return err
	}

	log.Println("Seeded admin user:", email)
	return nil
}
