package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrDocumentOwner is returned when a document has zero or two owners.
var ErrDocumentOwner = errors.New("document must belong to exactly one application")

// Document is a file attached to one application under a typed slot.
type Document struct {
	ID                  uint      `gorm:"primaryKey" json:"-"`
	ApplicationID       *uint     `gorm:"index" json:"-"`
	LostIDApplicationID *uint     `gorm:"column:lost_id_application_id;index" json:"-"`
	DocumentType        string    `gorm:"size:64;not null" json:"document_type"`
	FilePath            string    `gorm:"size:512;not null" json:"file_path"`
	CreatedAt           time.Time `json:"-"`
}

// Validate enforces the single-owner rule.
func (d *Document) Validate() error {
	hasApp := d.ApplicationID != nil && *d.ApplicationID != 0
	hasLost := d.LostIDApplicationID != nil && *d.LostIDApplicationID != 0
	if hasApp == hasLost {
		return ErrDocumentOwner
	}
	if d.DocumentType == "" || d.FilePath == "" {
		return errors.New("document type and file path are required")
	}
	return nil
}

// BeforeCreate is a GORM hook.
func (d *Document) BeforeCreate(_ *gorm.DB) error {
	return d.Validate()
}

// Document slots for new applications.
const (
	DocPassportPhoto    = "passport_photo"
	DocBirthCertificate = "birth_certificate"
	DocParentIDFront    = "parent_id_front"
)

// Document slots for lost-ID replacements.
const (
	DocOBPhoto          = "ob_photo"
	DocNewPassportPhoto = "new_passport_photo"
	DocBirthCertPhoto   = "birth_cert_photo"
)

// ApplicationDocumentSlots maps multipart field names to document types.
// Fields not listed here are ignored.
var ApplicationDocumentSlots = map[string]string{
	"passportPhoto":    DocPassportPhoto,
	"birthCertificate": DocBirthCertificate,
	"parentsId":        DocParentIDFront,
}

// LostIDDocumentSlots maps multipart field names to document types.
var LostIDDocumentSlots = map[string]string{
	"ob_photo":          DocOBPhoto,
	"passport_photo":    DocNewPassportPhoto,
	"birth_certificate": DocBirthCertPhoto,
}

// LostIDRequiredFiles lists the uploads a replacement cannot go without, in report order.
var LostIDRequiredFiles = []string{"ob_photo", "passport_photo", "birth_certificate"}
