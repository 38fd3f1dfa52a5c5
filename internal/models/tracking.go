package models

import (
	"strings"
	"time"
)

// TrackingRef is a public identifier resolved against one workflow's number space.
type TrackingRef interface {
	Number() string
	Workflow() string
	trackingRef()
}

// ApplicationRef points at Application.ApplicationNumber.
type ApplicationRef struct{ Value string }

// LostIDRef points at LostIDApplication.WaitingCardNumber.
type LostIDRef struct{ Value string }

func (r ApplicationRef) Number() string   { return r.Value }
func (r ApplicationRef) Workflow() string { return "application" }
func (ApplicationRef) trackingRef()       {}

func (r LostIDRef) Number() string   { return r.Value }
func (r LostIDRef) Workflow() string { return "lost_id" }
func (LostIDRef) trackingRef()       {}

// CandidateRefs expands a public number into the refs it may denote, in
// resolution order: applications first, then lost-ID waiting cards.
func CandidateRefs(number string) []TrackingRef {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil
	}
	return []TrackingRef{ApplicationRef{Value: number}, LostIDRef{Value: number}}
}

// TrackingView is the public status summary returned for any tracked number.
type TrackingView struct {
	ApplicationNumber string    `json:"application_number"`
	FullNames         string    `json:"full_names"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// LostIDTrackingView is the status summary for a waiting card number.
type LostIDTrackingView struct {
	WaitingCardNumber string    `json:"waiting_card_number"`
	CitizenIDNumber   string    `json:"citizen_id_number"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	CitizenName       *string   `json:"citizen_name"`
}
