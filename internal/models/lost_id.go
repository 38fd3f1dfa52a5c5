package models

import "time"

// ApplicationTypeRenewal is how lost-ID replacements appear in merged listings.
const ApplicationTypeRenewal = "renewal"

// LostIDApplication is a request to replace a lost national ID.
type LostIDApplication struct {
	ID                uint         `gorm:"primaryKey" json:"id"`
	WaitingCardNumber string       `gorm:"size:32;uniqueIndex;not null" json:"waiting_card_number"`
	CitizenIDNumber   string       `gorm:"size:32;not null;index" json:"citizen_id_number"`
	OBNumber          string       `gorm:"column:ob_number;size:64;not null" json:"ob_number"`
	OBDescription     string       `gorm:"column:ob_description;type:text;not null" json:"ob_description"`
	PaymentMethod     string       `gorm:"size:32;not null" json:"payment_method"`
	PaymentAmount     float64      `gorm:"type:numeric(10,2);not null" json:"payment_amount"`
	Status            LostIDStatus `gorm:"size:32;not null;default:submitted;index" json:"status"`
	OfficerID         uint         `gorm:"index" json:"officer_id"`
	CreatedAt         time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`

	Officer   *Officer   `gorm:"foreignKey:OfficerID" json:"-"`
	Citizen   *Citizen   `gorm:"foreignKey:CitizenIDNumber;references:IDNumber" json:"-"`
	Payment   *Payment   `gorm:"foreignKey:LostIDApplicationID" json:"payment,omitempty"`
	Documents []Document `gorm:"foreignKey:LostIDApplicationID" json:"documents,omitempty"`
}

// TableName keeps the plural snake_case name the API and migrations use.
func (LostIDApplication) TableName() string {
	return "lost_id_applications"
}

func (l *LostIDApplication) guard(action Action) (LostIDStatus, error) {
	next, ok := l.Status.Next(action)
	if !ok {
		return "", &TransitionError{Workflow: "lost_id", From: string(l.Status), Action: action}
	}
	return next, nil
}

// Transition applies action or returns a *TransitionError.
func (l *LostIDApplication) Transition(action Action, now time.Time) error {
	next, err := l.guard(action)
	if err != nil {
		return err
	}
	l.Status = next
	l.UpdatedAt = now
	return nil
}

// PaymentStatus tracks whether the replacement fee was settled.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
)

// Payment records the replacement fee for exactly one lost-ID application.
type Payment struct {
	ID                  uint          `gorm:"primaryKey" json:"id"`
	LostIDApplicationID uint          `gorm:"column:lost_id_application_id;uniqueIndex;not null" json:"lost_id_application_id"`
	Amount              float64       `gorm:"type:numeric(10,2);not null" json:"amount"`
	PaymentMethod       string        `gorm:"size:32;not null" json:"payment_method"`
	Status              PaymentStatus `gorm:"size:16;not null;default:pending" json:"status"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// Complete marks the payment as settled. Completing twice is a no-op.
func (p *Payment) Complete(now time.Time) {
	if p.Status == PaymentStatusCompleted {
		return
	}
	p.Status = PaymentStatusCompleted
	p.UpdatedAt = now
}
