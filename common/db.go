package common

import (
	"log"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ConnectDb opens the sqlite database named by the sqlite_db environment
// variable. Returns nil when the variable is missing or the open fails.
func ConnectDb() *gorm.DB {
	dbFile := os.Getenv("sqlite_db")
	if dbFile == "" {
		log.Println("sqlite_db not set")
		return nil
	}

	db, err := gorm.Open(sqlite.Open(dbFile), &gorm.Config{})
	if err != nil {
		log.Println("Error opening sqlite db: " + err.Error())
		return nil
	}

	log.Println("opened sqlite db at:", dbFile)
	return db
}
