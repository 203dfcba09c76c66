package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Regex patterns
var (
	// something@something.something with no whitespace, not RFC 5322.
	// \s is ASCII-only in RE2, so Unicode separators and BOM are listed too.
	contactEmailRegex = regexp.MustCompile(`^[^\s\p{Z}\x{FEFF}@]+@[^\s\p{Z}\x{FEFF}@]+\.[^\s\p{Z}\x{FEFF}@]+$`)
)

// New returns a validator with the project's custom rules registered.
func New() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("contact_email", ContactEmail)
}

// ContactEmail validates the contact form's email format
func ContactEmail(fl validator.FieldLevel) bool {
	return IsContactEmail(fl.Field().String())
}

// IsContactEmail reports whether s passes the contact form email check.
func IsContactEmail(s string) bool {
	return contactEmailRegex.MatchString(s)
}
