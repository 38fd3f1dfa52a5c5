package models

import (
	"time"
)

// ApplicationTypeNew is the only application_type a fresh submission carries.
const ApplicationTypeNew = "new"

// Application is a request for a first national ID.
type Application struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	ApplicationNumber string `gorm:"size:32;uniqueIndex;not null" json:"application_number"`

	FullNames       string `gorm:"size:255;not null" json:"full_names"`
	DateOfBirth     string `gorm:"size:32;not null" json:"date_of_birth"`
	Gender          string `gorm:"size:16;not null" json:"gender"`
	FatherName      string `gorm:"size:255;not null" json:"father_name"`
	MotherName      string `gorm:"size:255;not null" json:"mother_name"`
	MaritalStatus   string `gorm:"size:32" json:"marital_status"`
	HusbandName     string `gorm:"size:255" json:"husband_name"`
	HusbandIDNo     string `gorm:"column:husband_id_no;size:32" json:"husband_id_no"`
	DistrictOfBirth string `gorm:"size:128;not null" json:"district_of_birth"`
	Tribe           string `gorm:"size:128;not null" json:"tribe"`
	Clan            string `gorm:"size:128" json:"clan"`
	Family          string `gorm:"size:128" json:"family"`
	HomeDistrict    string `gorm:"size:128;not null" json:"home_district"`
	Division        string `gorm:"size:128;not null" json:"division"`
	Constituency    string `gorm:"size:128;not null" json:"constituency"`
	Location        string `gorm:"size:128;not null" json:"location"`
	SubLocation     string `gorm:"size:128;not null" json:"sub_location"`
	VillageEstate   string `gorm:"size:128;not null" json:"village_estate"`
	HomeAddress     string `gorm:"size:255" json:"home_address"`
	Occupation      string `gorm:"size:128;not null" json:"occupation"`

	// SupportingDocuments holds the raw JSON the officer attached, if any.
	SupportingDocuments string `gorm:"type:text" json:"supporting_documents"`

	ApplicationType   string            `gorm:"size:16;not null;default:new" json:"application_type"`
	Status            ApplicationStatus `gorm:"size:32;not null;default:submitted;index" json:"status"`
	GeneratedIDNumber *string           `gorm:"size:32;uniqueIndex" json:"generated_id_number"`
	OfficerID         uint              `gorm:"index" json:"officer_id"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Officer   *Officer   `gorm:"foreignKey:OfficerID" json:"-"`
	Documents []Document `gorm:"foreignKey:ApplicationID" json:"documents"`
}

func (a *Application) guard(action Action) (ApplicationStatus, error) {
	next, ok := a.Status.Next(action)
	if !ok {
		return "", &TransitionError{Workflow: "application", From: string(a.Status), Action: action}
	}
	return next, nil
}

// CanApprove reports whether the application may receive an ID number.
func (a *Application) CanApprove() error {
	if _, err := a.guard(ActionApprove); err != nil {
		return err
	}
	if a.GeneratedIDNumber != nil {
		return &TransitionError{Workflow: "application", From: string(a.Status), Action: ActionApprove}
	}
	return nil
}

// Approve assigns the issued ID number. The number is never overwritten.
func (a *Application) Approve(idNumber string, now time.Time) error {
	if err := a.CanApprove(); err != nil {
		return err
	}
	a.Status = ApplicationStatusApproved
	a.GeneratedIDNumber = &idNumber
	a.UpdatedAt = now
	return nil
}

func (a *Application) Reject(now time.Time) error {
	return a.apply(ActionReject, now)
}

func (a *Application) Dispatch(now time.Time) error {
	return a.apply(ActionDispatch, now)
}

func (a *Application) MarkCardArrived(now time.Time) error {
	return a.apply(ActionCardArrived, now)
}

// CanCollect applies the collection rule. With legacyFallback set, rows that
// skipped the arrival step (status dispatched or empty) are collectable as
// long as an ID number was issued.
func (a *Application) CanCollect(legacyFallback bool) error {
	if a.Status == ApplicationStatusReadyForCollection {
		return nil
	}
	if legacyFallback && a.isLegacyCollectable() {
		return nil
	}
	return &TransitionError{Workflow: "application", From: string(a.Status), Action: ActionCardCollected}
}

// isLegacyCollectable mirrors the legacy "generated_id_number IS NOT NULL"
// check, so an empty issued number still counts.
func (a *Application) isLegacyCollectable() bool {
	if a.GeneratedIDNumber == nil {
		return false
	}
	return a.Status == ApplicationStatusLegacy || a.Status == ApplicationStatusDispatched
}

func (a *Application) Collect(now time.Time, legacyFallback bool) error {
	if err := a.CanCollect(legacyFallback); err != nil {
		return err
	}
	a.Status = ApplicationStatusCollected
	a.UpdatedAt = now
	return nil
}

func (a *Application) apply(action Action, now time.Time) error {
	next, err := a.guard(action)
	if err != nil {
		return err
	}
	a.Status = next
	a.UpdatedAt = now
	return nil
}

// IDNumber returns the issued ID number or "".
func (a *Application) IDNumber() string {
	if a.GeneratedIDNumber == nil {
		return ""
	}
	return *a.GeneratedIDNumber
}
