package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// User-facing messages. The form only ever shows one of these.
const (
	MsgRequiredFields = "Todos los campos son requeridos"
	MsgInvalidEmail   = "Email inválido"
	MsgInvalidInput   = "Datos inválidos"
)

// FieldLabels maps struct field names to user-friendly Spanish labels
var FieldLabels = map[string]string{
	"Nombre":     "Nombre",
	"Email":      "Email",
	"TipoEvento": "Tipo de evento",
	"Fecha":      "Fecha del evento",
	"Mensaje":    "Mensaje",
}

// ContactMessage collapses validation errors into the single message the form shows.
// Missing fields win over a bad email, matching the order the checks are described to users.
func ContactMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return MsgInvalidInput
	}

	for _, e := range validationErrors {
		if e.Tag() == "required" {
			return MsgRequiredFields
		}
	}
	for _, e := range validationErrors {
		if e.Tag() == "contact_email" {
			return MsgInvalidEmail
		}
	}
	return MsgInvalidInput
}

// FormatValidationErrors converts validator.ValidationErrors to user-friendly messages
func FormatValidationErrors(err error) []string {
	if err == nil {
		return nil
	}
	var messages []string

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		// Not a validation error, return generic message
		return []string{err.Error()}
	}

	for _, e := range validationErrors {
		messages = append(messages, formatSingleError(e))
	}

	return messages
}

// formatSingleError formats a single validation error to a user-friendly message
func formatSingleError(e validator.FieldError) string {
	label := getFieldLabel(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: Requerido", label)
	case "contact_email", "email":
		return fmt.Sprintf("%s: Formato de email inválido", label)
	default:
		// Fallback for unknown tags
		return fmt.Sprintf("%s: Validación fallida (%s)", label, e.Tag())
	}
}

// getFieldLabel returns the user-friendly label for a field
func getFieldLabel(fieldName string) string {
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	// Return field name with spaces between camelCase words
	return formatCamelCase(fieldName)
}

// formatCamelCase converts CamelCase to spaced words
func formatCamelCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune(' ')
		}
		result.WriteRune(r)
	}
	return result.String()
}
