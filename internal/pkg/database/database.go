package database

import "gorm.io/gorm"

var DB *gorm.DB

// GetDB returns the process-wide GORM handle initialized by SetupDatabase.
func GetDB() *gorm.DB {
	return DB
}

// SetDB replaces the process-wide handle. Intended for tests that substitute
// an sqlite/mock database.
func SetDB(db *gorm.DB) {
	DB = db
}
