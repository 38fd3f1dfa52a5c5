// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"idportal/internal/database"
	"idportal/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns an isolated, migrated in-memory database.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// One connection keeps the shared in-memory database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateOfficer inserts an officer with the given status and password "password123".
func CreateOfficer(t testing.TB, db *gorm.DB, email string, status models.OfficerStatus) *models.Officer {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	officer := &models.Officer{
		IDNumber:     uuid.NewString()[:12],
		Email:        email,
		PhoneNumber:  "0700000000",
		FullName:     "Officer " + email,
		Station:      "Nairobi Central",
		PasswordHash: string(hash),
		Status:       status,
	}
	if err := db.Create(officer).Error; err != nil {
		t.Fatalf("create officer: %v", err)
	}
	return officer
}

// CreateApplication inserts an application in the given state.
// A non-empty idNumber is stored as the issued ID.
func CreateApplication(t testing.TB, db *gorm.DB, number string, officerID uint, status models.ApplicationStatus, idNumber string) *models.Application {
	t.Helper()
	app := &models.Application{
		ApplicationNumber: number,
		FullNames:         "Jane Wanjiku Doe",
		DateOfBirth:       "1990-04-12",
		Gender:            "female",
		FatherName:        "John Doe",
		MotherName:        "Mary Doe",
		DistrictOfBirth:   "Kiambu",
		Tribe:             "Kikuyu",
		HomeDistrict:      "Kiambu",
		Division:          "Limuru",
		Constituency:      "Limuru",
		Location:          "Ngecha",
		SubLocation:       "Ngecha East",
		VillageEstate:     "Kamirithu",
		Occupation:        "Teacher",
		ApplicationType:   models.ApplicationTypeNew,
		Status:            models.ApplicationStatusSubmitted,
		OfficerID:         officerID,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	if idNumber != "" {
		app.GeneratedIDNumber = &idNumber
	}
	if err := db.Create(app).Error; err != nil {
		t.Fatalf("create application: %v", err)
	}
	// Zero-valued statuses are replaced by the column default on insert.
	if status != models.ApplicationStatusSubmitted {
		if err := db.Model(app).Update("status", status).Error; err != nil {
			t.Fatalf("set status: %v", err)
		}
		app.Status = status
	}
	return app
}
