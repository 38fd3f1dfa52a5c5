package models

import "time"

// Source types reported by merged listings.
const (
	SourceRegular = "regular"
	SourceLostID  = "lost_id"
)

// PendingOfficerView is one row of the admin moderation queue.
type PendingOfficerView struct {
	ID          uint      `json:"id"`
	IDNumber    string    `json:"id_number"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	FullName    string    `json:"full_name"`
	Station     string    `json:"station"`
	CreatedAt   time.Time `json:"created_at"`
}

// AdminApplicationRow is one entry of the merged admin listing.
type AdminApplicationRow struct {
	ID                uint      `json:"id"`
	ApplicationNumber string    `json:"application_number"`
	FullNames         *string   `json:"full_names"`
	Status            string    `json:"status"`
	ApplicationType   string    `json:"application_type"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	OfficerName       *string   `json:"officer_name"`
	SourceType        string    `json:"source_type"`
}

// OfficerApplicationRow is one entry of the officer's own merged listing.
type OfficerApplicationRow struct {
	ID                uint      `json:"id"`
	ApplicationNumber string    `json:"application_number"`
	FullNames         *string   `json:"full_names"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	GeneratedIDNumber *string   `json:"generated_id_number"`
	ApplicationType   string    `json:"application_type"`
	SourceType        string    `json:"source_type"`
}

// ApprovedApplicationRow lists applications awaiting dispatch.
type ApprovedApplicationRow struct {
	ID                uint      `json:"id"`
	ApplicationNumber string    `json:"application_number"`
	FullNames         string    `json:"full_names"`
	ApplicationType   string    `json:"application_type"`
	GeneratedIDNumber *string   `json:"generated_id_number"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	OfficerName       *string   `json:"officer_name"`
}

// ApplicationDetail is the admin view of one application with its documents.
type ApplicationDetail struct {
	Application
	OfficerName *string `json:"officer_name"`
}

// AdminLostIDRow is one entry of the admin lost-ID listing.
type AdminLostIDRow struct {
	ID                uint      `json:"id"`
	WaitingCardNumber string    `json:"waiting_card_number"`
	CitizenIDNumber   string    `json:"citizen_id_number"`
	OBNumber          string    `json:"ob_number"`
	PaymentMethod     string    `json:"payment_method"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	OfficerName       *string   `json:"officer_name"`
	CitizenName       *string   `json:"citizen_name"`
}

// OfficerLostIDRow is one entry of the officer's lost-ID listing.
type OfficerLostIDRow struct {
	ID                uint      `json:"id"`
	WaitingCardNumber string    `json:"waiting_card_number"`
	CitizenIDNumber   string    `json:"citizen_id_number"`
	OBNumber          string    `json:"ob_number"`
	PaymentMethod     string    `json:"payment_method"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	CitizenName       *string   `json:"citizen_name"`
}
