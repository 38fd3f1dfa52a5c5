package validation

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ApplicationRequiredFields are the form keys a new application must carry, in report order.
var ApplicationRequiredFields = []string{
	"fullNames", "dateOfBirth", "gender", "fatherName", "motherName",
	"districtOfBirth", "tribe", "homeDistrict", "division",
	"constituency", "location", "subLocation", "villageEstate", "occupation",
}

// LostIDRequiredFields are the form keys a lost-ID replacement must carry.
var LostIDRequiredFields = []string{"id_number", "ob_number", "ob_description", "payment_method"}

// MissingFields returns the keys of required whose values are blank, in order.
func MissingFields(values map[string]string, required []string) []string {
	var missing []string
	for _, key := range required {
		if err := validation.Validate(strings.TrimSpace(values[key]), validation.Required); err != nil {
			missing = append(missing, key)
		}
	}
	return missing
}

// MissingFieldsMessage formats the 400 message for absent form fields.
func MissingFieldsMessage(missing []string) string {
	return fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", "))
}

// MissingFilesMessage formats the 400 message for absent uploads.
func MissingFilesMessage(missing []string) string {
	return fmt.Sprintf("Missing required files: %s", strings.Join(missing, ", "))
}
