package models

import "time"

// Role distinguishes the two kinds of authenticated actors.
type Role string

const (
	RoleOfficer Role = "officer"
	RoleAdmin   Role = "admin"
)

// Officer is a registration-station employee who submits applications.
type Officer struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	IDNumber     string        `gorm:"size:32;uniqueIndex;not null" json:"id_number"`
	Email        string        `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PhoneNumber  string        `gorm:"size:32;not null" json:"phone_number"`
	FullName     string        `gorm:"size:255;not null" json:"full_name"`
	Station      string        `gorm:"size:128;not null" json:"station"`
	PasswordHash string        `gorm:"size:255;not null" json:"-"`
	Status       OfficerStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	CreatedAt    time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Moderate applies an admin decision to a pending officer.
func (o *Officer) Moderate(action Action, now time.Time) error {
	next, ok := o.Status.Next(action)
	if !ok {
		return &TransitionError{Workflow: "officer", From: string(o.Status), Action: action}
	}
	o.Status = next
	o.UpdatedAt = now
	return nil
}

// Admin is a headquarters account that reviews applications.
type Admin struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	FullName     string    `gorm:"size:255;not null" json:"full_name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IDSequence is the per-class, per-year counter behind generated identifiers.
type IDSequence struct {
	Name      string    `gorm:"primaryKey;size:32"`
	Year      int       `gorm:"primaryKey;autoIncrement:false"`
	Value     int64     `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName returns the counter table name.
func (IDSequence) TableName() string {
	return "id_sequences"
}
