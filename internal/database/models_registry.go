package database

import "idportal/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for AutoMigrate: referenced tables come first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Officer{},
		&models.Admin{},
		&models.Citizen{},
		&models.Application{},
		&models.LostIDApplication{},
		&models.Payment{},
		&models.Document{},
		&models.IDSequence{},
	}
}
