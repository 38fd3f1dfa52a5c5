// Package validation checks inbound request payloads.
package validation

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// SignupRequest is the officer self-registration payload.
type SignupRequest struct {
	IDNumber    string `json:"idNumber"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	FullName    string `json:"fullName"`
	Station     string `json:"station"`
	Password    string `json:"password"`
}

// Validate reports the first problem, checking fields in form order.
func (r *SignupRequest) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"idNumber", r.IDNumber},
		{"email", r.Email},
		{"phoneNumber", r.PhoneNumber},
		{"fullName", r.FullName},
		{"station", r.Station},
		{"password", r.Password},
	}
	for _, f := range fields {
		if err := validation.Validate(strings.TrimSpace(f.value), validation.Required); err != nil {
			return fmt.Errorf("%s is required", f.name)
		}
	}

	if err := validation.Validate(r.Email, is.EmailFormat); err != nil {
		return errors.New("email must be a valid email address")
	}
	if err := validation.Validate(r.Password, validation.Length(8, 128)); err != nil {
		return errors.New("password must be between 8 and 128 characters")
	}
	return nil
}

// OfficerLoginRequest is the officer login payload.
type OfficerLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *OfficerLoginRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
	if err != nil {
		return errors.New("Email and password are required")
	}
	return nil
}

// AdminLoginRequest is the admin login payload.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *AdminLoginRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
	if err != nil {
		return errors.New("Username and password are required")
	}
	return nil
}
