package models

import "time"

// Citizen is the identity projection used by lost-ID replacements.
// Rows are backfilled lazily from approved applications.
type Citizen struct {
	IDNumber     string    `gorm:"primaryKey;size:32" json:"id_number"`
	FullNames    string    `gorm:"size:255;not null" json:"full_names"`
	DateOfBirth  string    `gorm:"size:32" json:"date_of_birth"`
	PlaceOfBirth string    `gorm:"size:128" json:"place_of_birth"`
	Gender       string    `gorm:"size:16" json:"gender"`
	Nationality  string    `gorm:"size:64" json:"nationality"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// CitizenFromApplication derives the projection from an issued application.
func CitizenFromApplication(app *Application, nationality string) *Citizen {
	return &Citizen{
		IDNumber:     app.IDNumber(),
		FullNames:    app.FullNames,
		DateOfBirth:  app.DateOfBirth,
		PlaceOfBirth: app.DistrictOfBirth,
		Gender:       app.Gender,
		Nationality:  nationality,
	}
}
